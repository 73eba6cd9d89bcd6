package peg

// PathElement is one (matcher, enter index) hop on the way from the
// grammar's root to a particular activation.
type PathElement struct {
	Matcher    Matcher
	EnterIndex int
}

// MatcherPath identifies which grammar position a failure happened
// at: the ordered list of ancestor matchers, root first, together
// with the index each one was entered at.
type MatcherPath []PathElement

// IsPrefixOf reports whether p is a prefix of other — used by the
// resync qualification predicate to check that a sequence's own path
// leads to the position that actually made progress.
func (p MatcherPath) IsPrefixOf(other MatcherPath) bool {
	if len(p) > len(other) {
		return false
	}
	for i := range p {
		if p[i].Matcher != other[i].Matcher || p[i].EnterIndex != other[i].EnterIndex {
			return false
		}
	}
	return true
}

// Leaf returns the last element of the path, the matcher that
// actually failed.
func (p MatcherPath) Leaf() PathElement { return p[len(p)-1] }

// rootState is the state every MatcherContext in one parse run shares:
// the buffer being read, the handler that gates every matcher
// activation, and the value stack Action matchers manipulate. Kept
// separate from MatcherContext itself so cloning a sub-context is
// just three pointer copies plus the per-activation fields.
type rootState struct {
	buffer  InputBuffer
	handler MatchHandler
	stack   *ValueStack
}

// MatcherContext is the per-(matcher, position) activation record the
// engine threads through a parse. It is created lazily by SubContext
// as the engine descends into the grammar tree and discarded when the
// owning Match call returns.
type MatcherContext struct {
	root   *rootState
	matcher Matcher
	parent *MatcherContext

	StartIndex   int
	CurrentIndex int

	errorFlag       bool
	intTag          int
	inErrorRecovery bool
}

// NewRootContext builds the top-level context for a fresh parse over
// buffer, dispatching every matcher activation through handler.
func NewRootContext(buffer InputBuffer, handler MatchHandler, stack *ValueStack, root Matcher) *MatcherContext {
	return &MatcherContext{
		root:    &rootState{buffer: buffer, handler: handler, stack: stack},
		matcher: root,
	}
}

func (c *MatcherContext) buffer() InputBuffer   { return c.root.buffer }
func (c *MatcherContext) handler() MatchHandler { return c.root.handler }

// Matcher returns the matcher this activation is for.
func (c *MatcherContext) Matcher() Matcher { return c.matcher }

// Parent returns the enclosing activation, or nil at the root.
func (c *MatcherContext) Parent() *MatcherContext { return c.parent }

// Stack returns the shared value stack.
func (c *MatcherContext) Stack() *ValueStack { return c.root.stack }

// Buffer returns the input buffer this context reads from.
func (c *MatcherContext) Buffer() InputBuffer { return c.root.buffer }

// SubContext creates the activation record for child, entering it at
// the current cursor position.
func (c *MatcherContext) SubContext(child Matcher) *MatcherContext {
	return &MatcherContext{
		root:         c.root,
		matcher:      child,
		parent:       c,
		StartIndex:   c.CurrentIndex,
		CurrentIndex: c.CurrentIndex,
	}
}

// RunMatcher dispatches this activation through the installed
// handler, the same call the engine itself makes for every child.
func (c *MatcherContext) RunMatcher() bool { return c.handler().Match(c) }

// CurrentChar returns the character under the cursor.
func (c *MatcherContext) CurrentChar() rune { return c.root.buffer.CharAt(c.CurrentIndex) }

// AdvanceIndex moves the cursor forward by n; advancing past EOI is
// the caller's responsibility to avoid (the buffer itself is total
// and never panics, but grammar matchers should not call this once
// CurrentChar() == EOI).
func (c *MatcherContext) AdvanceIndex(n int) { c.CurrentIndex += n }

// SetCurrentIndex forcibly repositions the cursor, used by the
// recovery handler to rewind or skip over sentinel markers.
func (c *MatcherContext) SetCurrentIndex(i int) { c.CurrentIndex = i }

// SetStartIndex updates where this activation is considered to have
// begun.
func (c *MatcherContext) SetStartIndex(i int) { c.StartIndex = i }

// MarkError flags this activation as having recovered from an error,
// the parse-tree-building run's cue that the corresponding node was
// synthesized rather than matched cleanly.
func (c *MatcherContext) MarkError() { c.errorFlag = true }

// IsError reports whether MarkError has been called on this
// activation.
func (c *MatcherContext) IsError() bool { return c.errorFlag }

// SetIntTag/IntTag carry the flag the resync replay sets to 1 on a
// sequence context once it reaches the sequence's first failing child.
func (c *MatcherContext) SetIntTag(n int) { c.intTag = n }
func (c *MatcherContext) IntTag() int     { return c.intTag }

// SetInErrorRecovery/InErrorRecovery gate the "error action mode"
// error actions run in during resync replay: their boolean result is
// ignored while this flag is set.
func (c *MatcherContext) SetInErrorRecovery(v bool) { c.inErrorRecovery = v }
func (c *MatcherContext) InErrorRecovery() bool     { return c.inErrorRecovery }

// Path walks up from this activation to the root, returning the
// ordered (matcher, enter index) chain used for resync qualification
// and for InvalidInputError.FailedMatchers.
func (c *MatcherContext) Path() MatcherPath {
	depth := 0
	for a := c; a != nil; a = a.parent {
		depth++
	}
	path := make(MatcherPath, depth)
	a := c
	for i := depth - 1; i >= 0; i-- {
		path[i] = PathElement{Matcher: a.matcher, EnterIndex: a.StartIndex}
		a = a.parent
	}
	return path
}
