package certificates

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"oleotrax/certificate-portal/pkg/pdf"
)

// Surface is the page a certificate is painted on. Coordinates are in
// points with the origin at the bottom-left corner.
type Surface interface {
	Size() (float64, float64)
	FillRect(x, y, w, h float64, fill pdf.Color)
	CellRect(x, y, w, h float64, fill, stroke pdf.Color, lineWidth float64)
	Circle(cx, cy, r float64, fill pdf.Color)
	Line(x1, y1, x2, y2 float64, stroke pdf.Color, lineWidth float64)
	Text(x, y float64, text string, font pdf.FontSpec, color pdf.Color)
	TextCentered(cx, y float64, text string, font pdf.FontSpec, color pdf.Color)
	Image(path string, x, y, w, h float64) error
}

const certificateTitle = "CERTIFICADO DE COLETA E DESCARTE"

const (
	headerHeight  = 50.0
	emblemRadius  = 40.0
	logoSize      = 50.0
	titleOffset   = 70.0
	dateOffset    = 100.0
	bodyFontSize  = 10.0
	lineSpacing   = 1.2
	paragraphGap  = 8.0
	tableGap      = 15.0
	dateToBodyGap = 20.0
)

// bodyFloor is the lowest point the table may reach, above the footer
const bodyFloor = 55.0

var (
	headerColor = pdf.MustHexColor("#1e7a4d")
	footerColor = pdf.MustHexColor("#787878")
)

// Composer paints certificates according to a LayoutConfig
type Composer struct {
	config  LayoutConfig
	metrics pdf.Measurer
	logger  *zap.Logger
}

// NewComposer creates a composer measuring text with the core font tables
func NewComposer(config LayoutConfig, logger *zap.Logger) *Composer {
	return &Composer{
		config:  config,
		metrics: pdf.CoreFonts(),
		logger:  logger,
	}
}

// WithConfig returns a composer painting with config and sharing the
// font metrics and logger of c
func (c *Composer) WithConfig(config LayoutConfig) *Composer {
	return &Composer{config: config, metrics: c.metrics, logger: c.logger}
}

// Config returns the layout the composer paints with
func (c *Composer) Config() LayoutConfig {
	return c.config
}

// Compose renders the certificate for req as PDF bytes. Nothing is returned
// when the request is invalid.
func (c *Composer) Compose(req CertificateRequest) ([]byte, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	date, err := DeriveDate(req.CollectionDate)
	if err != nil {
		return nil, err
	}

	options := pdf.DefaultCanvasOptions()
	options.Title = certificateTitle
	options.Subject = req.CompanyName
	options.Author = c.config.Issuer.Name
	options.CreationDate = date.Date

	canvas := pdf.NewCanvas(options)
	if err := c.paint(canvas, req, date); err != nil {
		return nil, err
	}

	out, err := canvas.Bytes()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Composed certificate",
		zap.String("company", req.CompanyName),
		zap.Int("size_bytes", len(out)),
		zap.Duration("elapsed", time.Since(start)))

	return out, nil
}

// Render paints the certificate for req onto s
func (c *Composer) Render(s Surface, req CertificateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	date, err := DeriveDate(req.CollectionDate)
	if err != nil {
		return err
	}
	return c.paint(s, req, date)
}

func (c *Composer) paint(s Surface, req CertificateRequest, date DateParts) error {
	w, h := s.Size()
	usable := w - 2*c.config.Margin

	paragraphs := make([][]pdf.RunLine, 0, 3)
	for _, runs := range [][]pdf.Run{c.attestationRuns(req), c.storageRuns(), closingRuns()} {
		lines, err := pdf.WrapRuns(runs, usable, c.metrics)
		if err != nil {
			return fmt.Errorf("failed to lay out paragraph: %w", err)
		}
		paragraphs = append(paragraphs, lines)
	}

	rows := TableRows(req, date, c.config)
	top := h - dateOffset - dateToBodyGap
	if bottom := top - c.bodyHeight(paragraphs, len(rows)); bottom < bodyFloor {
		return fmt.Errorf("%w: certificate body ends at y=%.1f, below the footer limit %.0f",
			ErrInvalidInput, bottom, bodyFloor)
	}

	c.paintHeader(s, w, h)

	y := h - dateOffset
	s.Text(c.config.Margin, y, "Data: "+date.LongForm(), pdf.Helvetica(pdf.Regular, 11), pdf.Black)
	y -= dateToBodyGap

	for i, lines := range paragraphs {
		y = c.paintParagraph(s, y, lines)
		if i == 0 {
			y -= paragraphGap
		}
	}

	y -= tableGap
	c.paintTable(s, y, w, rows)

	c.paintFooter(s, w)
	return nil
}

// bodyHeight is the vertical space taken from the first body baseline down
// to the bottom of the table
func (c *Composer) bodyHeight(paragraphs [][]pdf.RunLine, rows int) float64 {
	var lines int
	for _, p := range paragraphs {
		lines += len(p)
	}
	height := float64(lines)*bodyFontSize*lineSpacing + paragraphGap + tableGap
	if c.config.TableOrientation == TableHorizontal {
		return height + 2*horizontalRowH
	}
	return height + float64(rows)*verticalRowH
}

func (c *Composer) paintHeader(s Surface, w, h float64) {
	s.FillRect(0, h-headerHeight, w, headerHeight, headerColor)
	s.Circle(w/2, h-headerHeight/2, emblemRadius, pdf.White)
	c.paintEmblem(s, w, h)
	s.TextCentered(w/2, h-titleOffset, certificateTitle, pdf.Helvetica(pdf.Bold, 18), pdf.Black)
}

// paintEmblem places the logo, falling back to the issuer initials when the
// logo is disabled or cannot be read.
func (c *Composer) paintEmblem(s Surface, w, h float64) {
	if c.config.EmblemMode == EmblemLogo && c.config.LogoPath != "" {
		err := s.Image(c.config.LogoPath, w/2-logoSize/2, h-headerHeight+1, logoSize, logoSize)
		if err == nil {
			return
		}
		c.logger.Debug("Logo unavailable, painting initials",
			zap.String("path", c.config.LogoPath), zap.Error(err))
	}

	s.TextCentered(w/2, h-headerHeight/2-7, c.initials(), pdf.Helvetica(pdf.Bold, 20), headerColor)
}

func (c *Composer) initials() string {
	if c.config.Issuer.Initials != "" {
		return c.config.Issuer.Initials
	}
	var sb strings.Builder
	for i, f := range strings.Fields(c.config.Issuer.Name) {
		if i == 2 {
			break
		}
		sb.WriteString(strings.ToUpper(string([]rune(f)[:1])))
	}
	return sb.String()
}

func (c *Composer) paintParagraph(s Surface, y float64, lines []pdf.RunLine) float64 {
	for _, line := range lines {
		for _, run := range line.Runs {
			s.Text(c.config.Margin+run.X, y, run.Text, run.Font, pdf.Black)
		}
		y -= bodyFontSize * lineSpacing
	}
	return y
}

func (c *Composer) paintFooter(s Surface, w float64) {
	issuer := c.config.Issuer
	s.TextCentered(w/2, 45, issuer.Name, pdf.Helvetica(pdf.Bold, 10), footerColor)

	contact := fmt.Sprintf("CNPJ: %s — %s — Telefone: %s", issuer.TaxID, issuer.Permit, issuer.Phone)
	s.TextCentered(w/2, 35, contact, pdf.Helvetica(pdf.Regular, 9), footerColor)

	if issuer.Tagline != "" {
		s.TextCentered(w/2, 25, `"`+issuer.Tagline+`"`, pdf.Helvetica(pdf.Italic, 9), footerColor)
	}
}
