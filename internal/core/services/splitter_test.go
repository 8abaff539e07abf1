package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_ShortTextUnsplit(t *testing.T) {
	pieces := splitText("short text", 1000, 200)
	assert.Equal(t, []string{"short text"}, pieces)
}

func TestSplitText_Empty(t *testing.T) {
	assert.Nil(t, splitText("", 1000, 200))
}

func TestSplitText_PrefersParagraphBreaks(t *testing.T) {
	para := strings.Repeat("a", 400)
	text := para + "\n\n" + para + "\n\n" + para

	pieces := splitText(text, 1000, 100)

	require.NotEmpty(t, pieces)
	for _, p := range pieces {
		assert.LessOrEqual(t, len(p), 1000)
	}
	// Paragraph splitting must not cut inside a paragraph.
	for _, p := range pieces {
		for _, seg := range strings.Split(p, "\n\n") {
			assert.LessOrEqual(t, len(seg), 400)
		}
	}
}

func TestSplitText_FallsBackToLines(t *testing.T) {
	// One paragraph of 1500 bytes forces the line tier.
	line := strings.Repeat("b", 500)
	text := line + "\n" + line + "\n" + line

	pieces := splitText(text, 1000, 100)

	require.GreaterOrEqual(t, len(pieces), 2)
	for _, p := range pieces {
		assert.LessOrEqual(t, len(p), 1000)
	}
}

// An 1800-byte text with no separators splits into 2 pieces; the
// second begins with the last 200 bytes of the first.
func TestSplitText_CharacterFallbackScenario(t *testing.T) {
	text := strings.Repeat("x", 800) + strings.Repeat("y", 200) + strings.Repeat("z", 800)

	pieces := splitText(text, 1000, 200)

	require.Len(t, pieces, 2)
	assert.Len(t, pieces[0], 1000)
	assert.Len(t, pieces[1], 1000)
	assert.Equal(t, pieces[0][800:], pieces[1][:200])
}

// Piece count matches ceil((L-O)/(T-O)) for separator-free text.
func TestSplitText_PieceCountFormula(t *testing.T) {
	tests := []struct {
		length, target, overlap int
	}{
		{1800, 1000, 200},
		{2500, 1000, 200},
		{5000, 1000, 200},
		{1001, 1000, 200},
		{3000, 500, 100},
	}

	for _, tt := range tests {
		text := strings.Repeat("q", tt.length)
		pieces := splitText(text, tt.target, tt.overlap)

		want := (tt.length - tt.overlap + tt.target - tt.overlap - 1) / (tt.target - tt.overlap)
		assert.Len(t, pieces, want, "L=%d T=%d O=%d", tt.length, tt.target, tt.overlap)

		for i, p := range pieces {
			assert.LessOrEqual(t, len(p), tt.target)
			if i > 0 {
				prev := pieces[i-1]
				assert.Equal(t, prev[len(prev)-tt.overlap:], p[:tt.overlap],
					"piece %d must start with previous tail", i)
			}
		}
	}
}

func TestSplitText_NeverSplitsRunes(t *testing.T) {
	text := strings.Repeat("æøå", 700) // 4200 bytes, no separators

	pieces := splitText(text, 1000, 200)

	require.NotEmpty(t, pieces)
	for i, p := range pieces {
		assert.True(t, utf8.ValidString(p), "piece %d must be valid UTF-8", i)
	}
}

// A single leading ASCII byte shifts every following 2-byte rune to an
// odd offset, so window starts land mid-rune unless they are aligned.
func TestSplitText_RuneAlignedWindowStarts(t *testing.T) {
	text := "a" + strings.Repeat("æ", 1000) // 2001 bytes, no separators

	pieces := splitText(text, 1000, 200)

	require.GreaterOrEqual(t, len(pieces), 2)
	for i, p := range pieces {
		assert.True(t, utf8.ValidString(p), "piece %d must be valid UTF-8", i)
	}
	// Each piece still begins with the previous piece's tail; boundary
	// alignment may shave at most utf8.UTFMax-1 bytes off the overlap.
	for i := 1; i < len(pieces); i++ {
		shared := 0
		for l := 200; l >= 200-(utf8.UTFMax-1); l-- {
			if strings.HasSuffix(pieces[i-1], pieces[i][:l]) {
				shared = l
				break
			}
		}
		assert.GreaterOrEqual(t, shared, 200-(utf8.UTFMax-1),
			"piece %d must start with previous tail", i)
	}
}

func TestSplitText_Deterministic(t *testing.T) {
	text := strings.Repeat("paragraph one\n\nparagraph two\n\n", 100)
	first := splitText(text, 800, 150)
	second := splitText(text, 800, 150)
	assert.Equal(t, first, second)
}
