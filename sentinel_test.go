package peg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		r        rune
		expected bool
	}{
		{"EOI is not itself a marker", EOI, false},
		{"deletion marker", DelError, true},
		{"insertion marker", InsError, true},
		{"resync marker", Resync, true},
		{"resync start marker", ResyncStart, true},
		{"resync end marker", ResyncEnd, true},
		{"resync eoi marker", ResyncEOI, true},
		{"ordinary rune", 'a', false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isSentinel(tt.r))
		})
	}
}

func TestSentinelsAreDistinctPrivateUseCodePoints(t *testing.T) {
	seen := map[rune]bool{}
	for _, r := range []rune{EOI, DelError, InsError, Resync, ResyncStart, ResyncEnd, ResyncEOI} {
		assert.False(t, seen[r], "sentinel %U reused", r)
		seen[r] = true
		assert.GreaterOrEqual(t, r, rune(0xE000))
		assert.LessOrEqual(t, r, rune(0xF8FF))
	}
}
