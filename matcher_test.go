package peg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func runMatcher(t *testing.T, m Matcher, input string) (bool, int) {
	t.Helper()
	buf := NewCharSequenceBuffer(input)
	ctx := NewRootContext(buf, BasicHandler{}, NewValueStack(), m)
	ok := ctx.RunMatcher()
	return ok, ctx.CurrentIndex
}

func TestSequenceMatcher(t *testing.T) {
	m := NewSequence(NewChar('a'), NewChar('b'), NewChar('c'))
	ok, idx := runMatcher(t, m, "abc")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	ok, idx = runMatcher(t, m, "abd")
	assert.False(t, ok)
	assert.Equal(t, 0, idx)
}

func TestFirstOfMatcher(t *testing.T) {
	m := NewFirstOf(NewChar('a'), NewChar('b'))
	ok, idx := runMatcher(t, m, "b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	ok, _ = runMatcher(t, m, "c")
	assert.False(t, ok)
}

func TestOneOrMoreMatcher(t *testing.T) {
	m := NewOneOrMore(NewChar('a'))
	ok, idx := runMatcher(t, m, "aaab")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	ok, _ = runMatcher(t, m, "b")
	assert.False(t, ok)
}

func TestZeroOrMoreMatcher(t *testing.T) {
	m := NewZeroOrMore(NewChar('a'))
	ok, idx := runMatcher(t, m, "b")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestOptionalMatcher(t *testing.T) {
	m := NewOptional(NewChar('a'))
	_, idx := runMatcher(t, m, "b")
	assert.Equal(t, 0, idx)
	_, idx = runMatcher(t, m, "a")
	assert.Equal(t, 1, idx)
}

func TestTestAndTestNot(t *testing.T) {
	testM := NewTest(NewChar('a'))
	ok, idx := runMatcher(t, testM, "a")
	assert.True(t, ok)
	assert.Equal(t, 0, idx, "predicates never consume input")

	notM := NewTestNot(NewChar('a'))
	ok, _ = runMatcher(t, notM, "b")
	assert.True(t, ok)
	ok, _ = runMatcher(t, notM, "a")
	assert.False(t, ok)
}

func TestActionMatcherPushesValue(t *testing.T) {
	action := NewAction("push", func(ctx *MatcherContext) bool {
		ctx.Stack().Push(NewTextValue("pushed"))
		return true
	})
	buf := NewCharSequenceBuffer("")
	stack := NewValueStack()
	ctx := NewRootContext(buf, BasicHandler{}, stack, action)
	assert.True(t, ctx.RunMatcher())
	assert.Equal(t, 1, stack.Depth())
	assert.Equal(t, `"pushed"`, stack.Pop().String())
}

func TestCharRangeAndAnyOf(t *testing.T) {
	digit := NewCharRange('0', '9')
	ok, _ := runMatcher(t, digit, "5")
	assert.True(t, ok)
	ok, _ = runMatcher(t, digit, "x")
	assert.False(t, ok)

	vowel := NewAnyOf('a', 'e', 'i', 'o', 'u')
	ok, _ = runMatcher(t, vowel, "e")
	assert.True(t, ok)
	ok, _ = runMatcher(t, vowel, "z")
	assert.False(t, ok)
}

func TestAnyMatcherRejectsEOI(t *testing.T) {
	m := NewAny()
	ok, _ := runMatcher(t, m, "")
	assert.False(t, ok)
	ok, idx := runMatcher(t, m, "x")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestStringMatcher(t *testing.T) {
	m := NewString("abc")
	ok, idx := runMatcher(t, m, "abcdef")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	ok, _ = runMatcher(t, m, "abx")
	assert.False(t, ok)
}
