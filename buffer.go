package peg

import (
	"strconv"
	"strings"
)

// IndexRange is a half-open [Start, End) span over logical indices.
type IndexRange struct {
	Start int
	End   int
}

// InputBuffer is the consumer-visible, random-access character source
// the matcher engine and its callers read from. char_at is total: it
// never fails, returning EOI for any out-of-range index.
type InputBuffer interface {
	CharAt(i int) rune
	Test(i int, chars []rune) bool
	Extract(start, end int) string
	ExtractRange(r IndexRange) string
	Position(i int) Position
	OriginalIndex(i int) int
	ExtractLine(n int) string
	Length() int
}

// CharSequenceBuffer is an immutable InputBuffer over a fixed rune
// slice, grounded in CharSequenceInputBuffer.java: the original_index
// of every position is itself, since nothing has been spliced in.
type CharSequenceBuffer struct {
	runes []rune
	lines lineIndex
}

// NewCharSequenceBuffer builds an immutable buffer over s.
func NewCharSequenceBuffer(s string) *CharSequenceBuffer {
	return &CharSequenceBuffer{runes: []rune(s)}
}

func (b *CharSequenceBuffer) CharAt(i int) rune {
	if i < 0 || i >= len(b.runes) {
		return EOI
	}
	return b.runes[i]
}

func (b *CharSequenceBuffer) Test(i int, chars []rune) bool {
	if i+len(chars) > len(b.runes) || i < 0 {
		return false
	}
	for k, c := range chars {
		if b.runes[i+k] != c {
			return false
		}
	}
	return true
}

func (b *CharSequenceBuffer) Extract(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(b.runes) {
		end = len(b.runes)
	}
	if start >= end {
		return ""
	}
	return string(b.runes[start:end])
}

func (b *CharSequenceBuffer) ExtractRange(r IndexRange) string {
	return b.Extract(r.Start, r.End)
}

func (b *CharSequenceBuffer) Position(i int) Position {
	return b.lines.position(b.runes, i)
}

func (b *CharSequenceBuffer) OriginalIndex(i int) int { return i }

func (b *CharSequenceBuffer) ExtractLine(n int) string {
	lines := strings.Split(string(b.runes), "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[n-1], "\r")
}

func (b *CharSequenceBuffer) Length() int { return len(b.runes) }

// MutableInputBuffer wraps an immutable InputBuffer and supports the
// single-character insert/undo/replace operations the recovering
// runner uses to splice sentinel markers into the stream. Every
// logical slot remembers whether it came from the original source or
// was inserted, which is exactly what original_index and
// UndoCharInsertion need.
type MutableInputBuffer struct {
	source    InputBuffer
	logical   []rune
	inserted  []bool
	origCount int // number of original (non-inserted) runes, reported as ParseResult.InputLength
}

// NewMutableInputBuffer copies source's text into a mutable overlay.
func NewMutableInputBuffer(source InputBuffer) *MutableInputBuffer {
	n := source.Length()
	logical := make([]rune, n)
	inserted := make([]bool, n)
	for i := 0; i < n; i++ {
		logical[i] = source.CharAt(i)
	}
	return &MutableInputBuffer{source: source, logical: logical, inserted: inserted, origCount: n}
}

func (b *MutableInputBuffer) CharAt(i int) rune {
	if i < 0 || i >= len(b.logical) {
		return EOI
	}
	return b.logical[i]
}

func (b *MutableInputBuffer) Test(i int, chars []rune) bool {
	if i < 0 || i+len(chars) > len(b.logical) {
		return false
	}
	for k, c := range chars {
		if b.logical[i+k] != c {
			return false
		}
	}
	return true
}

// Extract returns the text in [start, end) with every recovery marker
// rune left out, so sentinels never surface in extracted text; an
// inserted ordinary character (a repair's replacement) is kept.
func (b *MutableInputBuffer) Extract(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(b.logical) {
		end = len(b.logical)
	}
	if start >= end {
		return ""
	}
	out := make([]rune, 0, end-start)
	for _, r := range b.logical[start:end] {
		if !isSentinel(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

func (b *MutableInputBuffer) ExtractRange(r IndexRange) string {
	return b.Extract(r.Start, r.End)
}

func (b *MutableInputBuffer) Position(i int) Position {
	return b.source.Position(b.OriginalIndex(i))
}

// OriginalIndex projects a logical index back to the immutable
// source: the largest original index <= i that was not itself
// produced by an insertion.
func (b *MutableInputBuffer) OriginalIndex(i int) int {
	if i >= len(b.logical) {
		i = len(b.logical) - 1
	}
	pos := i
	for pos >= 0 && b.inserted[pos] {
		pos--
	}
	if pos < 0 {
		return -1
	}
	origIdx := -1
	for k := 0; k <= pos; k++ {
		if !b.inserted[k] {
			origIdx++
		}
	}
	return origIdx
}

func (b *MutableInputBuffer) ExtractLine(n int) string {
	return b.source.ExtractLine(n)
}

func (b *MutableInputBuffer) Length() int { return len(b.logical) }

// InsertChar splices c in at logical index i; every position >= i
// shifts up by one.
func (b *MutableInputBuffer) InsertChar(i int, c rune) {
	b.logical = append(b.logical, 0)
	copy(b.logical[i+1:], b.logical[i:])
	b.logical[i] = c

	b.inserted = append(b.inserted, false)
	copy(b.inserted[i+1:], b.inserted[i:])
	b.inserted[i] = true
}

// UndoCharInsertion removes the most recent insertion at logical
// index i. It panics with an InvariantViolation if there is none,
// mirroring the Java implementation's Preconditions check.
func (b *MutableInputBuffer) UndoCharInsertion(i int) {
	if i < 0 || i >= len(b.logical) || !b.inserted[i] {
		panic(NewInvariantViolation("undo_insert: no insertion at index " + strconv.Itoa(i)))
	}
	b.logical = append(b.logical[:i], b.logical[i+1:]...)
	b.inserted = append(b.inserted[:i], b.inserted[i+1:]...)
}

// ReplaceInsertedChar rewrites an already-inserted character without
// touching original indices.
func (b *MutableInputBuffer) ReplaceInsertedChar(i int, c rune) {
	if i < 0 || i >= len(b.logical) || !b.inserted[i] {
		panic(NewInvariantViolation("replace_inserted: no insertion at index " + strconv.Itoa(i)))
	}
	b.logical[i] = c
}
