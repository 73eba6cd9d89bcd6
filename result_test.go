package peg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// errorSummary is what two InvalidInputErrors are actually compared
// on: their Buffer and FailedMatchers hold pointers that will never
// be == across two independent runs, so a raw cmp.Diff over
// *InvalidInputError is meaningless without first projecting down to
// the position/length values a caller actually cares about.
type errorSummary struct {
	Position Position
	Length   int
}

func summarizeErrors(errs []*InvalidInputError) []errorSummary {
	out := make([]errorSummary, len(errs))
	for i, e := range errs {
		out[i] = errorSummary{
			Position: e.Buffer.Position(e.Buffer.OriginalIndex(e.StartIndex)),
			Length:   e.EndIndex - e.StartIndex,
		}
	}
	return out
}

func TestRecoveringRunnerIsDeterministicAcrossRuns(t *testing.T) {
	grammar := func() Matcher { return NewSequence(NewChar('a'), NewChar('b'), NewChar('c')) }

	first, err := NewRecoveringRunner(grammar(), 0).Run("axc")
	require.NoError(t, err)
	second, err := NewRecoveringRunner(grammar(), 0).Run("axc")
	require.NoError(t, err)

	if diff := cmp.Diff(summarizeErrors(first.Errors), summarizeErrors(second.Errors)); diff != "" {
		t.Errorf("two runs over identical input disagreed on recovered error positions (-first +second):\n%s", diff)
	}
	require.Equal(t, first.Matched, second.Matched)
}
