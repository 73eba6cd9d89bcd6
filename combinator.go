package peg

import "fmt"

// Generic parser-combinator plumbing used to build the bootstrap
// parser that reads a grammar description and constructs a Matcher
// tree directly: no intermediate AST, no bytecode rewriting, both
// explicitly out of scope.

const runeEOF = -1

// Location is a position in the grammar source text, used only for
// backtracking and for locating a syntax error; it is unrelated to
// Position, which describes positions in a parsed input buffer.
type Location struct {
	Line   int
	Column int
	Cursor int
}

// textCursor is the low-level rune reader grammar parsing is built on.
type textCursor struct {
	cursor int
	line   int
	column int
	input  []rune
}

func newTextCursor(s string) *textCursor {
	return &textCursor{input: []rune(s)}
}

func (p *textCursor) Location() Location {
	return Location{Line: p.line, Column: p.column, Cursor: p.cursor}
}

func (p *textCursor) Peek() rune {
	if p.cursor >= len(p.input) {
		return runeEOF
	}
	return p.input[p.cursor]
}

func (p *textCursor) Backtrack(l Location) {
	p.cursor, p.line, p.column = l.Cursor, l.Line, l.Column
}

func (p *textCursor) Any() (rune, error) {
	c := p.Peek()
	if c == runeEOF {
		return 0, p.NewError("unexpected end of grammar")
	}
	p.cursor++
	p.column++
	if c == '\n' {
		p.column = 0
		p.line++
	}
	return c, nil
}

func (p *textCursor) ExpectRune(v rune) (rune, error) {
	if c := p.Peek(); c == v {
		return p.Any()
	}
	return 0, p.NewError(fmt.Sprintf("expected %q", v))
}

func (p *textCursor) ExpectRuneFn(v rune) func() (rune, error) {
	return func() (rune, error) { return p.ExpectRune(v) }
}

func (p *textCursor) ExpectRange(lo, hi rune) (rune, error) {
	if c := p.Peek(); c >= lo && c <= hi {
		return p.Any()
	}
	return 0, p.NewError(fmt.Sprintf("expected char in range %q-%q", lo, hi))
}

func (p *textCursor) NewError(msg string) error {
	loc := p.Location()
	return &InvalidGrammarError{Message: fmt.Sprintf("%s at %d:%d", msg, loc.Line+1, loc.Column+1)}
}

// parseFn is the signature every grammar production below is written
// against, generic over its return type.
type parseFn[T any] func() (T, error)

// zeroOrMore calls fn until it errors, collecting every successful
// result; it always succeeds, backtracking past the last failed
// attempt.
func zeroOrMore[T any](p *textCursor, fn parseFn[T]) []T {
	var out []T
	for {
		pos := p.Location()
		item, err := fn()
		if err != nil {
			p.Backtrack(pos)
			break
		}
		out = append(out, item)
	}
	return out
}

// oneOrMore requires at least one success before behaving like
// zeroOrMore.
func oneOrMore[T any](p *textCursor, fn parseFn[T]) ([]T, error) {
	head, err := fn()
	if err != nil {
		return nil, err
	}
	return append([]T{head}, zeroOrMore(p, fn)...), nil
}

// choice tries each fn in turn, backtracking between attempts, and
// fails only once every alternative has failed.
func choice[T any](p *textCursor, fns ...parseFn[T]) (T, error) {
	var zero T
	pos := p.Location()
	for _, fn := range fns {
		if item, err := fn(); err == nil {
			return item, nil
		}
		p.Backtrack(pos)
	}
	return zero, p.NewError("no alternative matched")
}

// optional never fails: it returns fn's result or the zero value.
func optional[T any](p *textCursor, fn parseFn[T]) T {
	pos := p.Location()
	item, err := fn()
	if err != nil {
		p.Backtrack(pos)
		var zero T
		return zero
	}
	return item
}

// lookaheadAnd succeeds without consuming input iff fn would succeed.
func lookaheadAnd[T any](p *textCursor, fn parseFn[T]) error {
	pos := p.Location()
	_, err := fn()
	p.Backtrack(pos)
	if err != nil {
		return p.NewError("and-predicate failed")
	}
	return nil
}

// lookaheadNot succeeds without consuming input iff fn would fail.
func lookaheadNot[T any](p *textCursor, fn parseFn[T]) error {
	pos := p.Location()
	_, err := fn()
	p.Backtrack(pos)
	if err == nil {
		return p.NewError("not-predicate failed")
	}
	return nil
}
