package peg

// Matcher is a node in the grammar tree. The recovery layer needs to
// tell a handful of shapes apart (Sequence in particular, for resync
// qualification) and to walk children for the visitors in visitor.go,
// so Matcher exposes its children rather than only offering an opaque
// Match method; the five recovery visitors in visitor.go walk this
// tree with plain type switches.
//
// Each constructor below (NewSequence, NewFirstOf, NewOneOrMore, ...)
// is the node-tree analogue of a classic PEG combinator
// (Choice/ZeroOrMore/OneOrMore/Optional/And/Not), generalized into a
// tree the engine can introspect rather than an opaque closure.
type Matcher interface {
	// Match attempts this matcher at ctx.StartIndex. On success it
	// returns true and leaves ctx.CurrentIndex at the first
	// unconsumed position. On failure it returns false and leaves
	// ctx.CurrentIndex reset to ctx.StartIndex.
	Match(ctx *MatcherContext) bool

	// Children returns this matcher's sub-matchers, or nil for a
	// terminal.
	Children() []Matcher

	// Label names the matcher for MatcherPath / diagnostics.
	Label() string
}

// baseMatcher factors the Children/Label bookkeeping every composite
// matcher needs.
type baseMatcher struct {
	label    string
	children []Matcher
}

func (m *baseMatcher) Children() []Matcher { return m.children }
func (m *baseMatcher) Label() string       { return m.label }

// SequenceMatcher matches every child in order, backtracking to
// StartIndex if any child fails. It is the matcher kind the resync
// machinery cares about: only a SequenceMatcher can "own" a resync
// site.
type SequenceMatcher struct{ baseMatcher }

func NewSequence(children ...Matcher) *SequenceMatcher {
	return &SequenceMatcher{baseMatcher{label: "Sequence", children: children}}
}

func (m *SequenceMatcher) Match(ctx *MatcherContext) bool {
	start := ctx.CurrentIndex
	for _, child := range m.children {
		sub := ctx.SubContext(child)
		if !ctx.handler().Match(sub) {
			ctx.CurrentIndex = start
			return false
		}
		ctx.CurrentIndex = sub.CurrentIndex
	}
	return true
}

// FirstOfMatcher (ordered choice) tries each child in order and
// commits to the first that succeeds.
type FirstOfMatcher struct{ baseMatcher }

func NewFirstOf(children ...Matcher) *FirstOfMatcher {
	return &FirstOfMatcher{baseMatcher{label: "FirstOf", children: children}}
}

func (m *FirstOfMatcher) Match(ctx *MatcherContext) bool {
	start := ctx.CurrentIndex
	for _, child := range m.children {
		sub := ctx.SubContext(child)
		if ctx.handler().Match(sub) {
			ctx.CurrentIndex = sub.CurrentIndex
			return true
		}
		ctx.CurrentIndex = start
	}
	return false
}

// OneOrMoreMatcher requires its single child to match at least once,
// then greedily repeats it.
type OneOrMoreMatcher struct{ baseMatcher }

func NewOneOrMore(child Matcher) *OneOrMoreMatcher {
	return &OneOrMoreMatcher{baseMatcher{label: "OneOrMore", children: []Matcher{child}}}
}

func (m *OneOrMoreMatcher) sub() Matcher { return m.children[0] }

func (m *OneOrMoreMatcher) Match(ctx *MatcherContext) bool {
	start := ctx.CurrentIndex
	sub := ctx.SubContext(m.sub())
	if !ctx.handler().Match(sub) {
		ctx.CurrentIndex = start
		return false
	}
	ctx.CurrentIndex = sub.CurrentIndex
	for {
		next := ctx.SubContext(m.sub())
		if !ctx.handler().Match(next) || next.CurrentIndex == ctx.CurrentIndex {
			break
		}
		ctx.CurrentIndex = next.CurrentIndex
	}
	return true
}

// ZeroOrMoreMatcher greedily repeats its single child, always
// succeeding (possibly matching nothing).
type ZeroOrMoreMatcher struct{ baseMatcher }

func NewZeroOrMore(child Matcher) *ZeroOrMoreMatcher {
	return &ZeroOrMoreMatcher{baseMatcher{label: "ZeroOrMore", children: []Matcher{child}}}
}

func (m *ZeroOrMoreMatcher) Match(ctx *MatcherContext) bool {
	for {
		sub := ctx.SubContext(m.children[0])
		if !ctx.handler().Match(sub) || sub.CurrentIndex == ctx.CurrentIndex {
			break
		}
		ctx.CurrentIndex = sub.CurrentIndex
	}
	return true
}

// OptionalMatcher matches its child if possible, otherwise succeeds
// without consuming input.
type OptionalMatcher struct{ baseMatcher }

func NewOptional(child Matcher) *OptionalMatcher {
	return &OptionalMatcher{baseMatcher{label: "Optional", children: []Matcher{child}}}
}

func (m *OptionalMatcher) Match(ctx *MatcherContext) bool {
	sub := ctx.SubContext(m.children[0])
	if ctx.handler().Match(sub) {
		ctx.CurrentIndex = sub.CurrentIndex
	}
	return true
}

// TestMatcher is the positive predicate &e: succeeds iff its child
// matches, but never consumes input.
type TestMatcher struct{ baseMatcher }

func NewTest(child Matcher) *TestMatcher {
	return &TestMatcher{baseMatcher{label: "Test", children: []Matcher{child}}}
}

func (m *TestMatcher) Match(ctx *MatcherContext) bool {
	start := ctx.CurrentIndex
	sub := ctx.SubContext(m.children[0])
	ok := ctx.handler().Match(sub)
	ctx.CurrentIndex = start
	return ok
}

// TestNotMatcher is the negative predicate !e.
type TestNotMatcher struct{ baseMatcher }

func NewTestNot(child Matcher) *TestNotMatcher {
	return &TestNotMatcher{baseMatcher{label: "TestNot", children: []Matcher{child}}}
}

func (m *TestNotMatcher) Match(ctx *MatcherContext) bool {
	start := ctx.CurrentIndex
	sub := ctx.SubContext(m.children[0])
	ok := ctx.handler().Match(sub)
	ctx.CurrentIndex = start
	return !ok
}

// ActionFn is the side effect an ActionMatcher runs against the value
// stack. It returns false to fail the enclosing sequence, mirroring a
// parboiled parser action's boolean return.
type ActionFn func(ctx *MatcherContext) bool

// ActionMatcher never consumes input itself; it runs Fn for its
// side effect on the value stack and reports Fn's result.
type ActionMatcher struct {
	baseMatcher
	Fn ActionFn
}

func NewAction(label string, fn ActionFn) *ActionMatcher {
	return &ActionMatcher{baseMatcher{label: label}, fn}
}

func (m *ActionMatcher) Match(ctx *MatcherContext) bool { return m.Fn(ctx) }

// EmptyMatcher always succeeds without consuming input.
type EmptyMatcher struct{ baseMatcher }

func NewEmpty() *EmptyMatcher { return &EmptyMatcher{baseMatcher{label: "Empty"}} }

func (m *EmptyMatcher) Match(ctx *MatcherContext) bool { return true }

// NothingMatcher always fails without consuming input.
type NothingMatcher struct{ baseMatcher }

func NewNothing() *NothingMatcher { return &NothingMatcher{baseMatcher{label: "Nothing"}} }

func (m *NothingMatcher) Match(ctx *MatcherContext) bool { return false }

// CharMatcher matches exactly one rune.
type CharMatcher struct {
	baseMatcher
	Char rune
}

func NewChar(c rune) *CharMatcher {
	return &CharMatcher{baseMatcher{label: "Char(" + string(c) + ")"}, c}
}

func (m *CharMatcher) Match(ctx *MatcherContext) bool {
	if ctx.CurrentChar() != m.Char {
		return false
	}
	ctx.AdvanceIndex(1)
	return true
}

// CharRangeMatcher matches one rune within [Low, High].
type CharRangeMatcher struct {
	baseMatcher
	Low, High rune
}

func NewCharRange(low, high rune) *CharRangeMatcher {
	return &CharRangeMatcher{baseMatcher{label: "CharRange"}, low, high}
}

func (m *CharRangeMatcher) Match(ctx *MatcherContext) bool {
	c := ctx.CurrentChar()
	if c < m.Low || c > m.High {
		return false
	}
	ctx.AdvanceIndex(1)
	return true
}

// AnyOfMatcher matches one rune present in Chars.
type AnyOfMatcher struct {
	baseMatcher
	Chars []rune
}

func NewAnyOf(chars ...rune) *AnyOfMatcher {
	return &AnyOfMatcher{baseMatcher{label: "AnyOf"}, chars}
}

func (m *AnyOfMatcher) Match(ctx *MatcherContext) bool {
	c := ctx.CurrentChar()
	for _, want := range m.Chars {
		if c == want {
			ctx.AdvanceIndex(1)
			return true
		}
	}
	return false
}

// AnyMatcher matches any single rune except EOI.
type AnyMatcher struct{ baseMatcher }

func NewAny() *AnyMatcher { return &AnyMatcher{baseMatcher{label: "Any"}} }

func (m *AnyMatcher) Match(ctx *MatcherContext) bool {
	if ctx.CurrentChar() == EOI {
		return false
	}
	ctx.AdvanceIndex(1)
	return true
}

// StringMatcher matches a literal run of runes. It is not itself a
// single-character matcher, but is otherwise a terminal (no children
// worth recursing into for the recovery visitors beyond itself).
type StringMatcher struct {
	baseMatcher
	Chars []rune
}

func NewString(s string) *StringMatcher {
	return &StringMatcher{baseMatcher{label: "String(" + s + ")"}, []rune(s)}
}

func (m *StringMatcher) Match(ctx *MatcherContext) bool {
	if !ctx.buffer().Test(ctx.CurrentIndex, m.Chars) {
		return false
	}
	ctx.AdvanceIndex(len(m.Chars))
	return true
}
