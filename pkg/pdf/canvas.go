package pdf

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CanvasOptions configures a single page canvas
type CanvasOptions struct {
	PageSize     string    `json:"page_size"` // A4, Letter, Legal
	Title        string    `json:"title"`
	Subject      string    `json:"subject,omitempty"`
	Author       string    `json:"author,omitempty"`
	Creator      string    `json:"creator,omitempty"`
	CreationDate time.Time `json:"creation_date"`
}

// DefaultCanvasOptions returns default canvas options
func DefaultCanvasOptions() CanvasOptions {
	return CanvasOptions{
		PageSize:     "A4",
		Creator:      "certificate-portal",
		CreationDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Canvas is a one-page drawing surface measured in points with the origin
// at the bottom-left corner. Every draw call takes its font and colors as
// arguments; there is no current-font state visible to callers.
type Canvas struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
	width     float64
	height    float64
}

// NewCanvas creates a canvas with one blank page
func NewCanvas(options CanvasOptions) *Canvas {
	doc := gofpdf.New("P", "pt", options.PageSize, "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCatalogSort(true)
	doc.SetCreationDate(options.CreationDate)
	doc.SetModificationDate(options.CreationDate)
	if options.Title != "" {
		doc.SetTitle(options.Title, true)
	}
	if options.Subject != "" {
		doc.SetSubject(options.Subject, true)
	}
	if options.Author != "" {
		doc.SetAuthor(options.Author, true)
	}
	if options.Creator != "" {
		doc.SetCreator(options.Creator, true)
	}
	doc.AddPage()

	w, h := doc.GetPageSize()
	return &Canvas{
		pdf:       doc,
		translate: doc.UnicodeTranslatorFromDescriptor(""),
		width:     w,
		height:    h,
	}
}

// Size returns the page width and height in points
func (c *Canvas) Size() (float64, float64) {
	return c.width, c.height
}

// top converts a bottom-left y coordinate to gofpdf's top-left system
func (c *Canvas) top(y float64) float64 {
	return c.height - y
}

// FillRect paints a filled rectangle without a border. (x, y) is the
// bottom-left corner.
func (c *Canvas) FillRect(x, y, w, h float64, fill Color) {
	c.pdf.SetFillColor(fill.R, fill.G, fill.B)
	c.pdf.Rect(x, c.top(y+h), w, h, "F")
}

// CellRect paints a filled and stroked rectangle
func (c *Canvas) CellRect(x, y, w, h float64, fill, stroke Color, lineWidth float64) {
	c.pdf.SetLineWidth(lineWidth)
	c.pdf.SetDrawColor(stroke.R, stroke.G, stroke.B)
	c.pdf.SetFillColor(fill.R, fill.G, fill.B)
	c.pdf.Rect(x, c.top(y+h), w, h, "FD")
}

// Circle paints a filled circle centred at (cx, cy)
func (c *Canvas) Circle(cx, cy, r float64, fill Color) {
	c.pdf.SetFillColor(fill.R, fill.G, fill.B)
	c.pdf.Circle(cx, c.top(cy), r, "F")
}

// Line strokes a straight line
func (c *Canvas) Line(x1, y1, x2, y2 float64, stroke Color, lineWidth float64) {
	c.pdf.SetLineWidth(lineWidth)
	c.pdf.SetDrawColor(stroke.R, stroke.G, stroke.B)
	c.pdf.Line(x1, c.top(y1), x2, c.top(y2))
}

// Text draws text with its baseline starting at (x, y)
func (c *Canvas) Text(x, y float64, text string, font FontSpec, color Color) {
	c.pdf.SetFont(font.Family, font.Weight.style(), font.Size)
	c.pdf.SetTextColor(color.R, color.G, color.B)
	c.pdf.Text(x, c.top(y), c.translate(text))
}

// TextCentered draws text horizontally centred on cx
func (c *Canvas) TextCentered(cx, y float64, text string, font FontSpec, color Color) {
	c.Text(cx-c.StringWidth(text, font)/2, y, text, font, color)
}

// StringWidth measures text with the canvas's own font tables
func (c *Canvas) StringWidth(text string, font FontSpec) float64 {
	c.pdf.SetFont(font.Family, font.Weight.style(), font.Size)
	return c.pdf.GetStringWidth(c.translate(text))
}

// Image places a JPEG, PNG or GIF file with its bottom-left corner at (x, y).
// A failed image leaves the document usable.
func (c *Canvas) Image(path string, x, y, w, h float64) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("image not available: %w", err)
	}

	c.pdf.ImageOptions(path, x, c.top(y+h), w, h, false,
		gofpdf.ImageOptions{ImageType: "", ReadDpi: false}, 0, "")
	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return fmt.Errorf("failed to place image: %w", err)
	}
	return nil
}

// Bytes serializes the document. The canvas must not be used afterwards.
func (c *Canvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}
