package peg

import "fmt"

// InvalidInputError is a parse-level error at a specific, possibly
// repaired, position. It is always non-fatal under the recovering
// runner: the runner's job is to eliminate every one of these before
// returning.
type InvalidInputError struct {
	StartIndex     int
	EndIndex       int
	FailedMatchers []MatcherPath
	Buffer         InputBuffer

	delta int // accumulated shift applied by shiftIndexDeltaBy
}

func (e *InvalidInputError) Error() string {
	pos := e.Buffer.Position(e.StartIndex)
	if e.StartIndex == e.EndIndex {
		return fmt.Sprintf("invalid input at %s", pos)
	}
	return fmt.Sprintf("invalid input at %s (range %d..%d)", pos, e.StartIndex, e.EndIndex)
}

// shiftIndexDeltaBy compensates StartIndex for synthetic characters
// inserted by the repair loop, so that the index reported to callers
// tracks the logical buffer even as earlier edits shift everything
// after them.
func (e *InvalidInputError) shiftIndexDeltaBy(n int) {
	e.delta += n
	e.StartIndex += n
}

// TimeoutError is fatal: it terminates the parse, carrying the root
// rule and the current buffer so a caller can report where things
// stood. RecoveringRunner does not fill in LastResult; it is nil on
// every TimeoutError the runner returns.
type TimeoutError struct {
	Rule       Matcher
	Buffer     InputBuffer
	LastResult *ParseResult
}

func (e *TimeoutError) Error() string { return "grammar timed out during parse" }

// InvariantViolation signals a bug in the engine or buffer: an
// unexpected sentinel, a final run that didn't match, an undo with
// nothing to undo.
type InvariantViolation struct {
	Message string
}

func NewInvariantViolation(msg string) *InvariantViolation {
	return &InvariantViolation{Message: msg}
}

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.Message }

// InvalidGrammarError is a grammar construction defect surfaced
// during matcher visitation, e.g. asking GetStarterChar of a matcher
// that isn't a single-character terminal.
type InvalidGrammarError struct {
	Message string
}

func NewInvalidGrammarError(msg string) *InvalidGrammarError {
	return &InvalidGrammarError{Message: msg}
}

func (e *InvalidGrammarError) Error() string { return "invalid grammar: " + e.Message }

// ListenerError wraps a panic/error raised by a registered Listener,
// rethrown at the next synchronous boundary (post-parse, post-match,
// or pre-parse) so the failure is attributable to the correct phase.
type ListenerError struct {
	Phase string
	Cause error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener error during %s: %s", e.Phase, e.Cause)
}

func (e *ListenerError) Unwrap() error { return e.Cause }
