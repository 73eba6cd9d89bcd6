package peg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharSequenceBuffer(t *testing.T) {
	buf := NewCharSequenceBuffer("abc")
	assert.Equal(t, rune('a'), buf.CharAt(0))
	assert.Equal(t, EOI, buf.CharAt(3))
	assert.Equal(t, EOI, buf.CharAt(-1))
	assert.True(t, buf.Test(1, []rune{'b', 'c'}))
	assert.False(t, buf.Test(1, []rune{'b', 'x'}))
	assert.Equal(t, "bc", buf.Extract(1, 3))
	assert.Equal(t, 0, buf.OriginalIndex(0))
	assert.Equal(t, 3, buf.Length())
}

func TestCharSequenceBufferPosition(t *testing.T) {
	buf := NewCharSequenceBuffer("ab\ncd\nef")
	assert.Equal(t, Position{Line: 1, Column: 1}, buf.Position(0))
	assert.Equal(t, Position{Line: 2, Column: 1}, buf.Position(3))
	assert.Equal(t, Position{Line: 3, Column: 2}, buf.Position(7))
}

func TestMutableInputBufferInsertAndUndo(t *testing.T) {
	buf := NewMutableInputBuffer(NewCharSequenceBuffer("abc"))
	buf.InsertChar(1, DelError)
	assert.Equal(t, "abc", buf.Extract(0, buf.Length()))
	assert.Equal(t, 4, buf.Length())

	buf.UndoCharInsertion(1)
	assert.Equal(t, "abc", buf.Extract(0, buf.Length()))
}

func TestMutableInputBufferOriginalIndex(t *testing.T) {
	buf := NewMutableInputBuffer(NewCharSequenceBuffer("abc"))
	buf.InsertChar(1, InsError)
	// logical: a INS b c -> original indices 0, -, 1, 2
	assert.Equal(t, 0, buf.OriginalIndex(0))
	assert.Equal(t, 0, buf.OriginalIndex(1))
	assert.Equal(t, 1, buf.OriginalIndex(2))
	assert.Equal(t, 2, buf.OriginalIndex(3))
}

func TestMutableInputBufferReplaceInserted(t *testing.T) {
	buf := NewMutableInputBuffer(NewCharSequenceBuffer("ac"))
	buf.InsertChar(1, Resync)
	buf.ReplaceInsertedChar(1, ResyncStart)
	assert.Equal(t, ResyncStart, buf.CharAt(1))
}

func TestMutableInputBufferUndoWithoutInsertionPanics(t *testing.T) {
	buf := NewMutableInputBuffer(NewCharSequenceBuffer("abc"))
	require.Panics(t, func() { buf.UndoCharInsertion(1) })
}

func TestMutableInputBufferPreservesOriginalTextUnderExtraction(t *testing.T) {
	buf := NewMutableInputBuffer(NewCharSequenceBuffer("abc"))
	buf.InsertChar(1, DelError)
	buf.InsertChar(2, 'x')
	// original[1] is still 'b': extraction by original index must never
	// surface a sentinel, per the "preservation of original text" property.
	origIdx := buf.OriginalIndex(3)
	assert.Equal(t, 1, origIdx)
	assert.Equal(t, "b", buf.source.Extract(origIdx, origIdx+1))
}
