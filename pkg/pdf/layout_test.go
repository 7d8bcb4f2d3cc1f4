package pdf

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monoMeasurer gives every rune a fixed advance: half the font size for
// regular text and 0.6 of it for bold.
type monoMeasurer struct{}

func (monoMeasurer) StringWidth(text string, font FontSpec) float64 {
	advance := 0.5
	if font.Weight == Bold {
		advance = 0.6
	}
	return float64(len([]rune(text))) * font.Size * advance
}

func TestWrap_GreedyFill(t *testing.T) {
	font := Helvetica(Regular, 10)
	// 5 units per rune: "aaa bbb" = 35, "aaa bbb ccc" = 55
	lines, err := Wrap("aaa bbb ccc ddd", 40, font, monoMeasurer{})
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "aaa bbb", lines[0].Text())
	assert.Equal(t, "ccc ddd", lines[1].Text())
	assert.InDelta(t, 35.0, lines[0].Width, 1e-9)
}

func TestWrap_ExactFitStaysOnLine(t *testing.T) {
	lines, err := Wrap("aaa bbb", 35, Helvetica(Regular, 10), monoMeasurer{})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "aaa bbb", lines[0].Text())
}

func TestWrap_OverlongWordGetsOwnLine(t *testing.T) {
	lines, err := Wrap("a supercalifragilistic b", 30, Helvetica(Regular, 10), monoMeasurer{})
	require.NoError(t, err)

	require.Len(t, lines, 3)
	assert.Equal(t, []string{"a"}, lines[0].Words)
	assert.Equal(t, []string{"supercalifragilistic"}, lines[1].Words)
	assert.Equal(t, []string{"b"}, lines[2].Words)
}

func TestWrap_CollapsesWhitespace(t *testing.T) {
	lines, err := Wrap("  one\ttwo \n three  ", 1000, Helvetica(Regular, 10), monoMeasurer{})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "one two three", lines[0].Text())
}

func TestWrap_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
	}{
		{name: "empty text", text: "", maxWidth: 100},
		{name: "only whitespace", text: " \t\n ", maxWidth: 100},
		{name: "zero width", text: "hello", maxWidth: 0},
		{name: "negative width", text: "hello", maxWidth: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := Wrap(tt.text, tt.maxWidth, Helvetica(Regular, 10), monoMeasurer{})
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, lines)
		})
	}
}

func randomText(r *rand.Rand) string {
	n := 1 + r.Intn(60)
	words := make([]string, n)
	for i := range words {
		l := 1 + r.Intn(14)
		var sb strings.Builder
		for j := 0; j < l; j++ {
			sb.WriteByte(byte('a' + r.Intn(26)))
		}
		words[i] = sb.String()
	}
	return strings.Join(words, " ")
}

func TestWrap_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	measurers := map[string]Measurer{
		"mono": monoMeasurer{},
		"core": CoreFonts(),
	}

	for name, m := range measurers {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				text := randomText(r)
				maxWidth := 20 + r.Float64()*300
				font := Helvetica(Weight(r.Intn(3)), 8+float64(r.Intn(8)))

				lines, err := Wrap(text, maxWidth, font, m)
				require.NoError(t, err)

				var rejoined []string
				for _, line := range lines {
					require.NotEmpty(t, line.Words)
					rejoined = append(rejoined, line.Words...)

					width := m.StringWidth(line.Text(), font)
					if len(line.Words) > 1 {
						assert.LessOrEqual(t, width, maxWidth, "line %q", line.Text())
					}
					assert.InDelta(t, width, line.Width, 1e-9)
				}
				assert.Equal(t, strings.Fields(text), rejoined)
			}
		})
	}
}

func TestWrapRuns_BoldRunPlacement(t *testing.T) {
	regular := Helvetica(Regular, 10)
	bold := Helvetica(Bold, 10)
	m := CoreFonts()

	lines, err := WrapRuns([]Run{
		{Text: "sendo destinados pela", Font: regular},
		{Text: "OLEOTRAX LTDA", Font: bold},
		{Text: ", CNPJ/MF nº", Font: regular, Attach: true, Break: true},
		{Text: "59.750.105/0001-00", Font: bold},
	}, 500, m)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	first := lines[0]
	require.Len(t, first.Runs, 3)
	assert.Equal(t, "sendo destinados pela ", first.Runs[0].Text)
	assert.Equal(t, 0.0, first.Runs[0].X)

	assert.Equal(t, "OLEOTRAX LTDA", first.Runs[1].Text)
	assert.Equal(t, bold, first.Runs[1].Font)
	assert.InDelta(t, m.StringWidth("sendo destinados pela ", regular), first.Runs[1].X, 1e-9)

	assert.Equal(t, ", CNPJ/MF nº", first.Runs[2].Text)
	assert.InDelta(t, first.Runs[1].X+m.StringWidth("OLEOTRAX LTDA", bold), first.Runs[2].X, 1e-9)

	second := lines[1]
	require.Len(t, second.Runs, 1)
	assert.Equal(t, "59.750.105/0001-00", second.Runs[0].Text)
	assert.Equal(t, 0.0, second.Runs[0].X)
}

func TestWrapRuns_WrapsAcrossRuns(t *testing.T) {
	regular := Helvetica(Regular, 10)
	bold := Helvetica(Bold, 10)

	// regular words are 5 units per rune, bold 6
	lines, err := WrapRuns([]Run{
		{Text: "aa bb", Font: regular},
		{Text: "CC DD", Font: bold},
	}, 50, monoMeasurer{})
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, []string{"aa", "bb", "CC"}, lines[0].Words())
	assert.Equal(t, []string{"DD"}, lines[1].Words())
	assert.LessOrEqual(t, lines[0].Width, 50.0)
	assert.Equal(t, 0.0, lines[1].Runs[0].X)
	assert.Equal(t, bold, lines[1].Runs[0].Font)
}

func TestWrapRuns_TrailingBreakOnEmptyRun(t *testing.T) {
	lines, err := WrapRuns([]Run{
		{Text: "first", Font: Helvetica(Regular, 10)},
		{Text: "", Break: true},
		{Text: "second", Font: Helvetica(Regular, 10)},
	}, 1000, monoMeasurer{})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"first"}, lines[0].Words())
	assert.Equal(t, []string{"second"}, lines[1].Words())
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#1e7a4d")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x1e, G: 0x7a, B: 0x4d}, c)

	_, err = ParseHexColor("#12345")
	assert.Error(t, err)
	_, err = ParseHexColor("zzzzzz")
	assert.Error(t, err)
}

func TestCoreMetrics_Widths(t *testing.T) {
	m := CoreFonts()

	// Helvetica: space = 278/1000 em, bold "A" = 722/1000 em
	assert.InDelta(t, 2.78, m.StringWidth(" ", Helvetica(Regular, 10)), 1e-9)
	assert.InDelta(t, 7.22, m.StringWidth("A", Helvetica(Bold, 10)), 1e-9)
	assert.Greater(t, m.StringWidth("OLEOTRAX", Helvetica(Bold, 10)), m.StringWidth("OLEOTRAX", Helvetica(Regular, 10)))
	// accented letters are single cp1252 glyphs, not two UTF-8 bytes
	assert.InDelta(t, m.StringWidth("e", Helvetica(Regular, 10)), m.StringWidth("é", Helvetica(Regular, 10)), 1e-9)
}
