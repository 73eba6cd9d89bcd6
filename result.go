package peg

import "github.com/google/uuid"

// ParseResult is the immutable record a runner hands back once a parse
// run completes. The recovering runner returns exactly one of these,
// with Matched always true; its Errors slice lists every error the
// repair loop recorded and is empty iff the input parsed cleanly.
type ParseResult struct {
	RunID   uuid.UUID
	Matched bool

	Root  *MatcherContext
	Stack []Value

	Errors []*InvalidInputError

	// InputLength is the original, pre-splicing rune count of the
	// buffer the run started from, kept so callers can render error
	// positions without needing to hold onto the mutated buffer.
	InputLength int
}

// HasErrors reports whether any InvalidInputError was recorded.
func (r *ParseResult) HasErrors() bool { return len(r.Errors) > 0 }
