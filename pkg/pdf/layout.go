package pdf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when text cannot be laid out
var ErrInvalidInput = errors.New("invalid input")

// Line is one row produced by Wrap
type Line struct {
	Words []string
	Width float64
}

// Text returns the words of the line joined by single spaces
func (l Line) Text() string {
	return strings.Join(l.Words, " ")
}

// Run is a contiguous span of text sharing one font.
// Attach suppresses the space before the first word of the run, so
// punctuation can follow a run in another weight. Break ends the line after
// the last word of the run.
type Run struct {
	Text   string
	Font   FontSpec
	Attach bool
	Break  bool
}

// PlacedRun is a run positioned on a line; X is the offset from the line start
type PlacedRun struct {
	Text string
	Font FontSpec
	X    float64
}

// RunLine is one row produced by WrapRuns
type RunLine struct {
	Runs  []PlacedRun
	Width float64
}

// Words returns the words of the line in order
func (l RunLine) Words() []string {
	var words []string
	for _, r := range l.Runs {
		words = append(words, strings.Fields(r.Text)...)
	}
	return words
}

type word struct {
	text   string
	font   FontSpec
	attach bool
	brk    bool
}

// Wrap splits text into lines no wider than maxWidth using greedy line fill.
// A word wider than maxWidth is placed alone on its own line.
func Wrap(text string, maxWidth float64, font FontSpec, m Measurer) ([]Line, error) {
	runLines, err := WrapRuns([]Run{{Text: text, Font: font}}, maxWidth, m)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, len(runLines))
	for i, rl := range runLines {
		lines[i] = Line{Words: rl.Words(), Width: rl.Width}
	}
	return lines, nil
}

// WrapRuns lays out styled runs into lines no wider than maxWidth. Each word
// keeps the font of its run and is measured in it.
func WrapRuns(runs []Run, maxWidth float64, m Measurer) ([]RunLine, error) {
	if maxWidth <= 0 {
		return nil, fmt.Errorf("%w: max width must be positive, got %.2f", ErrInvalidInput, maxWidth)
	}

	words := splitRuns(runs)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: text has no words", ErrInvalidInput)
	}

	var lines []RunLine
	var current []word
	for _, w := range words {
		if len(current) > 0 {
			candidate := append(current[:len(current):len(current)], w)
			if _, width := placeWords(candidate, m); width > maxWidth {
				lines = append(lines, newRunLine(current, m))
				current = nil
			}
		}
		current = append(current, w)
		if w.brk {
			lines = append(lines, newRunLine(current, m))
			current = nil
		}
	}
	if len(current) > 0 {
		lines = append(lines, newRunLine(current, m))
	}

	return lines, nil
}

func splitRuns(runs []Run) []word {
	var words []word
	for _, r := range runs {
		fields := strings.Fields(r.Text)
		for i, f := range fields {
			words = append(words, word{
				text:   f,
				font:   r.Font,
				attach: r.Attach && i == 0,
			})
		}
		if r.Break && len(words) > 0 {
			words[len(words)-1].brk = true
		}
	}
	return words
}

func newRunLine(words []word, m Measurer) RunLine {
	runs, width := placeWords(words, m)
	return RunLine{Runs: runs, Width: width}
}

// placeWords merges consecutive words of the same font into runs and
// measures them. The space between two runs belongs to the earlier run.
func placeWords(words []word, m Measurer) ([]PlacedRun, float64) {
	var runs []PlacedRun
	var sb strings.Builder
	font := words[0].font
	x := 0.0

	flush := func() {
		text := sb.String()
		runs = append(runs, PlacedRun{Text: text, Font: font, X: x})
		x += m.StringWidth(text, font)
		sb.Reset()
	}

	for i, w := range words {
		if i > 0 && w.font != font {
			if !w.attach {
				sb.WriteByte(' ')
			}
			flush()
			font = w.font
		} else if i > 0 && !w.attach {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.text)
	}
	flush()

	return runs, x
}
