package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// Weight selects a face within a core font family
type Weight int

const (
	Regular Weight = iota
	Bold
	Italic
)

// style returns the gofpdf style string for the weight
func (w Weight) style() string {
	switch w {
	case Bold:
		return "B"
	case Italic:
		return "I"
	default:
		return ""
	}
}

func (w Weight) String() string {
	switch w {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	default:
		return "regular"
	}
}

// FontSpec identifies a font family, weight and size in points
type FontSpec struct {
	Family string  `json:"family"`
	Weight Weight  `json:"weight"`
	Size   float64 `json:"size"`
}

// Helvetica returns a FontSpec in the built-in Helvetica family
func Helvetica(weight Weight, size float64) FontSpec {
	return FontSpec{Family: "Helvetica", Weight: weight, Size: size}
}

// Color represents an RGB color
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{R: 0, G: 0, B: 0}
	White = Color{R: 255, G: 255, B: 255}
)

// ParseHexColor parses colors written as #rrggbb
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// MustHexColor is ParseHexColor for compile-time constants
func MustHexColor(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Measurer reports the rendered width of a string in a given font.
// Implementations must be deterministic.
type Measurer interface {
	StringWidth(text string, font FontSpec) float64
}

// CoreMetrics measures strings against the core font tables shipped with
// gofpdf. Text is translated to cp1252 first, the same encoding the canvas
// draws with.
type CoreMetrics struct {
	mu        sync.Mutex
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

// NewCoreMetrics creates a measurer with its own scratch document
func NewCoreMetrics() *CoreMetrics {
	doc := gofpdf.New("P", "pt", "A4", "")
	return &CoreMetrics{
		pdf:       doc,
		translate: doc.UnicodeTranslatorFromDescriptor(""),
	}
}

var (
	coreOnce    sync.Once
	coreMetrics *CoreMetrics
)

// CoreFonts returns the process-wide core font measurer
func CoreFonts() *CoreMetrics {
	coreOnce.Do(func() {
		coreMetrics = NewCoreMetrics()
	})
	return coreMetrics
}

// StringWidth returns the width of text in points
func (m *CoreMetrics) StringWidth(text string, font FontSpec) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pdf.SetFont(font.Family, font.Weight.style(), font.Size)
	return m.pdf.GetStringWidth(m.translate(text))
}
