package peg

// This file implements the five recovery visitors of the matcher tree.
// Each is a plain function with a type switch over the concrete matcher
// kinds rather than an Accept/Visitor pair: the matcher
// kinds only need telling apart in these five places, so a second
// dispatch mechanism living on every matcher type would buy nothing.

// IsSingleCharMatcher reports whether m matches exactly one character
// on success, or is a Test/TestNot predicate over such a matcher
// (which itself consumes nothing): the property the handler needs
// before it may interpret
// a sentinel rune (DEL_ERROR, INS_ERROR, ...) sitting under the
// cursor as something other than ordinary input.
func IsSingleCharMatcher(m Matcher) bool {
	switch t := m.(type) {
	case *CharMatcher, *CharRangeMatcher, *AnyOfMatcher, *AnyMatcher:
		return true
	case *TestMatcher:
		return IsSingleCharMatcher(t.children[0])
	case *TestNotMatcher:
		return IsSingleCharMatcher(t.children[0])
	default:
		return false
	}
}

// GetStarterChar returns the single character m can start with, when
// that character is uniquely determined, and ok=false otherwise.
// ok=false is the strict "null" sentinel: callers must never fall
// back to a zero rune meaning success.
func GetStarterChar(m Matcher) (rune, bool) {
	switch t := m.(type) {
	case *CharMatcher:
		return t.Char, true
	case *StringMatcher:
		if len(t.Chars) == 0 {
			return 0, false
		}
		return t.Chars[0], true
	case *SequenceMatcher:
		if len(t.children) == 0 {
			return 0, false
		}
		return GetStarterChar(t.children[0])
	case *FirstOfMatcher:
		if len(t.children) == 0 {
			return 0, false
		}
		first, ok := GetStarterChar(t.children[0])
		if !ok {
			return 0, false
		}
		for _, child := range t.children[1:] {
			c, ok := GetStarterChar(child)
			if !ok || c != first {
				return 0, false
			}
		}
		return first, true
	case *OneOrMoreMatcher:
		return GetStarterChar(t.sub())
	case *ZeroOrMoreMatcher:
		return GetStarterChar(t.children[0])
	case *OptionalMatcher:
		return GetStarterChar(t.children[0])
	default:
		return 0, false
	}
}

// IsStarterChar reports whether c could begin a match of m. Unlike
// GetStarterChar this never requires a unique answer: FirstOf accepts
// c if any alternative does, and matchers that may match the empty
// string (Optional, ZeroOrMore, Action, Empty) never rule out any c
// on their own, since something in the surrounding grammar decides
// what actually happens next.
func IsStarterChar(m Matcher, c rune) bool {
	switch t := m.(type) {
	case *CharMatcher:
		return c == t.Char
	case *CharRangeMatcher:
		return c >= t.Low && c <= t.High
	case *AnyOfMatcher:
		for _, want := range t.Chars {
			if c == want {
				return true
			}
		}
		return false
	case *AnyMatcher:
		return c != EOI
	case *StringMatcher:
		return len(t.Chars) > 0 && t.Chars[0] == c
	case *SequenceMatcher:
		if len(t.children) == 0 {
			return true
		}
		return IsStarterChar(t.children[0], c)
	case *FirstOfMatcher:
		for _, child := range t.children {
			if IsStarterChar(child, c) {
				return true
			}
		}
		return false
	case *OneOrMoreMatcher:
		return IsStarterChar(t.sub(), c)
	case *ZeroOrMoreMatcher:
		return true
	case *OptionalMatcher:
		return true
	case *TestMatcher:
		return IsStarterChar(t.children[0], c)
	case *TestNotMatcher:
		return IsStarterChar(t.children[0], c)
	case *ActionMatcher, *EmptyMatcher:
		return true
	case *NothingMatcher:
		return false
	default:
		return true
	}
}

// FollowMatchers walks up from ctx's activation to the root, returning
// the matchers that may legally follow the position ctx failed at.
// This is the raw material a resync scan uses to decide which
// character in the buffer is safe to stop skipping at during resync.
//
// At each ancestor step, the "current" matcher is the one whose
// activation record we are unwinding from. If that matcher is a
// direct child of a Sequence and not its last child, the immediate
// next sibling is a deterministic follow matcher and the walk stops
// there. Otherwise the ancestor's own follow set is whatever follows
// the ancestor in turn (a OneOrMore/ZeroOrMore also follows itself,
// since it may repeat), so the walk continues one level further up.
func FollowMatchers(ctx *MatcherContext) []Matcher {
	var out []Matcher
	seen := make(map[Matcher]bool)
	add := func(m Matcher) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}

	current := ctx.Matcher()
	for parent := ctx.Parent(); parent != nil; current, parent = parent.Matcher(), parent.Parent() {
		switch p := parent.Matcher().(type) {
		case *SequenceMatcher:
			idx := indexOfChild(p.children, current)
			if idx >= 0 && idx+1 < len(p.children) {
				add(p.children[idx+1])
				return out
			}
			// current was the last child of the sequence: whatever
			// follows the sequence also follows current.
		case *OneOrMoreMatcher:
			add(p)
		case *ZeroOrMoreMatcher:
			add(p)
		case *FirstOfMatcher, *OptionalMatcher, *TestMatcher, *TestNotMatcher:
			// these contribute nothing of their own; keep unwinding.
		}
	}
	return out
}

func indexOfChild(children []Matcher, m Matcher) int {
	for i, c := range children {
		if c == m {
			return i
		}
	}
	return -1
}

// CollectResyncActions returns the minimal list of Action matchers
// that must be replayed under a resynchronised sequence to keep the
// value stack consistent. A matcher with no actions to replay yields
// an empty list with ok=true; ok=false ("null") comes from a
// self-referential cycle, a FirstOf whose every alternative is null,
// or a Sequence with a null child. path guards against a grammar rule
// that transitively contains itself.
func CollectResyncActions(m Matcher, path []*SequenceMatcher) ([]*ActionMatcher, bool) {
	switch t := m.(type) {
	case *ActionMatcher:
		return []*ActionMatcher{t}, true

	case *FirstOfMatcher:
		for _, child := range t.children {
			if actions, ok := CollectResyncActions(child, path); ok {
				return actions, true
			}
		}
		return nil, false

	case *OneOrMoreMatcher:
		return CollectResyncActions(t.sub(), path)

	case *SequenceMatcher:
		for _, visited := range path {
			if visited == t {
				return nil, false
			}
		}
		path = append(path, t)
		var actions []*ActionMatcher
		for _, child := range t.children {
			childActions, ok := CollectResyncActions(child, path)
			if !ok {
				return nil, false
			}
			actions = append(actions, childActions...)
		}
		return actions, true

	default:
		return nil, true
	}
}
