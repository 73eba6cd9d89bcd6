package peg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSingleCharMatcher(t *testing.T) {
	assert.True(t, IsSingleCharMatcher(NewChar('a')))
	assert.True(t, IsSingleCharMatcher(NewCharRange('a', 'z')))
	assert.True(t, IsSingleCharMatcher(NewAnyOf('a', 'b')))
	assert.True(t, IsSingleCharMatcher(NewAny()))
	assert.True(t, IsSingleCharMatcher(NewTest(NewChar('a'))))
	assert.False(t, IsSingleCharMatcher(NewString("ab")))
	assert.False(t, IsSingleCharMatcher(NewSequence(NewChar('a'), NewChar('b'))))
}

func TestGetStarterChar(t *testing.T) {
	c, ok := GetStarterChar(NewChar('x'))
	require.True(t, ok)
	assert.Equal(t, 'x', c)

	c, ok = GetStarterChar(NewString("hi"))
	require.True(t, ok)
	assert.Equal(t, 'h', c)

	c, ok = GetStarterChar(NewSequence(NewChar('a'), NewChar('b')))
	require.True(t, ok)
	assert.Equal(t, 'a', c)

	_, ok = GetStarterChar(NewCharRange('a', 'z'))
	assert.False(t, ok, "a range has no unique starter character")

	c, ok = GetStarterChar(NewFirstOf(NewChar('a'), NewChar('a')))
	require.True(t, ok)
	assert.Equal(t, 'a', c)

	_, ok = GetStarterChar(NewFirstOf(NewChar('a'), NewChar('b')))
	assert.False(t, ok, "divergent alternatives have no unique starter character")
}

func TestIsStarterChar(t *testing.T) {
	assert.True(t, IsStarterChar(NewChar('a'), 'a'))
	assert.False(t, IsStarterChar(NewChar('a'), 'b'))
	assert.True(t, IsStarterChar(NewCharRange('0', '9'), '5'))
	assert.True(t, IsStarterChar(NewFirstOf(NewChar('a'), NewChar('b')), 'b'))
	assert.False(t, IsStarterChar(NewFirstOf(NewChar('a'), NewChar('b')), 'c'))
	assert.True(t, IsStarterChar(NewOptional(NewChar('a')), 'z'))
	assert.False(t, IsStarterChar(NewNothing(), 'a'))
}

func TestFollowMatchers(t *testing.T) {
	b := NewChar('b')
	seq := NewSequence(NewChar('a'), b, NewChar('c'))
	buf := NewCharSequenceBuffer("a")
	stack := NewValueStack()
	root := NewRootContext(buf, BasicHandler{}, stack, seq)
	aCtx := root.SubContext(seq.Children()[0])

	follow := FollowMatchers(aCtx)
	require.Len(t, follow, 1)
	assert.Same(t, Matcher(b), follow[0])
}

func TestFollowMatchersAtLastChildDefersToParent(t *testing.T) {
	inner := NewChar('a')
	outer := NewOneOrMore(inner)
	buf := NewCharSequenceBuffer("a")
	stack := NewValueStack()
	root := NewRootContext(buf, BasicHandler{}, stack, outer)
	innerCtx := root.SubContext(inner)

	follow := FollowMatchers(innerCtx)
	require.Len(t, follow, 1)
	assert.Same(t, Matcher(outer), follow[0])
}

func TestCollectResyncActions(t *testing.T) {
	pushed := NewAction("push", func(ctx *MatcherContext) bool { return true })

	actions, ok := CollectResyncActions(pushed, nil)
	require.True(t, ok)
	assert.Equal(t, []*ActionMatcher{pushed}, actions)

	seq := NewSequence(NewChar('a'), pushed, NewChar('b'))
	actions, ok = CollectResyncActions(seq, nil)
	require.True(t, ok)
	assert.Equal(t, []*ActionMatcher{pushed}, actions)

	choice := NewFirstOf(pushed, NewNothing())
	actions, ok = CollectResyncActions(choice, nil)
	require.True(t, ok)
	assert.Equal(t, []*ActionMatcher{pushed}, actions)
}

func TestCollectResyncActionsFirstOfTakesFirstNonNullAlternative(t *testing.T) {
	pushed := NewAction("push", func(ctx *MatcherContext) bool { return true })
	// Per spec, FirstOf returns the first child's collection that is
	// non-null; a terminal's "empty list" still counts as non-null, so
	// an Action buried behind an earlier terminal alternative is never
	// reached. This is a known static approximation, not a bug: the
	// visitor can't know which alternative will actually match on
	// replay.
	choice := NewFirstOf(NewChar('x'), pushed)
	actions, ok := CollectResyncActions(choice, nil)
	require.True(t, ok)
	assert.Empty(t, actions)
}

func TestCollectResyncActionsDetectsCycle(t *testing.T) {
	seq := NewSequence(NewChar('a'))
	// simulate a self-referential rule: calling with seq already on the
	// path stack is what a nested visit of the same sequence looks like,
	// forcing the path-stack cycle check.
	_, ok := CollectResyncActions(seq, []*SequenceMatcher{seq})
	assert.False(t, ok)
}
