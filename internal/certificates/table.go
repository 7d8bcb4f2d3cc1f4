package certificates

import (
	"strconv"
	"strings"

	"oleotrax/certificate-portal/pkg/pdf"
)

// TableRow is one label/value pair of the certificate table
type TableRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

const (
	wasteDescription = "Óleo vegetal usado"
	measurementUnit  = "Litros (L)"
	wasteClass       = "Classe II"
)

// TableRows returns the six table rows in their fixed order: description,
// quantity, unit, waste class, receipt date and packaging.
func TableRows(req CertificateRequest, date DateParts, cfg LayoutConfig) []TableRow {
	rows := []TableRow{
		{Label: "Descrição", Value: wasteDescription},
		{Label: "Quantidade", Value: FormatQuantity(req.QuantityLiters) + " L"},
		{Label: "Unidade de Medida", Value: measurementUnit},
		{Label: "Classe do Resíduo", Value: wasteClass},
		{Label: "Data de Recebimento", Value: date.Formatted},
		{Label: "Acondicionamento", Value: truncate(strings.TrimSpace(req.Packaging), cfg.PackagingBudget)},
	}

	if cfg.CellBudget > 0 {
		for i := range rows {
			rows[i].Value = truncate(rows[i].Value, cfg.CellBudget)
		}
	}
	return rows
}

// FormatQuantity prints liters without trailing zeros
func FormatQuantity(liters float64) string {
	return strconv.FormatFloat(liters, 'f', -1, 64)
}

// truncate keeps at most budget runes; budget 0 keeps everything
func truncate(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget])
}

const (
	labelColumnWidth = 100.0
	valueColumnWidth = 140.0
	verticalRowH     = 12.0
	horizontalRowH   = 14.0
	cellInset        = 3.0
	ruleWidth        = 0.5
)

var labelFill = pdf.MustHexColor("#dcf0dc")

// paintTable draws the rows below y and returns the y of the table bottom
func (c *Composer) paintTable(s Surface, y, pageWidth float64, rows []TableRow) float64 {
	if c.config.TableOrientation == TableHorizontal {
		return c.paintHorizontalTable(s, y, pageWidth-2*c.config.Margin, rows)
	}
	return c.paintVerticalTable(s, y, rows)
}

func (c *Composer) paintVerticalTable(s Surface, y float64, rows []TableRow) float64 {
	labelFont := pdf.Helvetica(pdf.Bold, 9)
	valueFont := pdf.Helvetica(pdf.Regular, 9)
	x := c.config.Margin
	top := y

	for _, row := range rows {
		s.CellRect(x, y-verticalRowH, labelColumnWidth, verticalRowH, labelFill, pdf.Black, ruleWidth)
		s.CellRect(x+labelColumnWidth, y-verticalRowH, valueColumnWidth, verticalRowH, pdf.White, pdf.Black, ruleWidth)

		s.Text(x+cellInset, y-8, row.Label, labelFont, pdf.Black)
		s.Text(x+labelColumnWidth+cellInset, y-8, c.fit(row.Value, valueFont, valueColumnWidth), valueFont, pdf.Black)
		y -= verticalRowH
	}

	for _, rx := range []float64{x, x + labelColumnWidth, x + labelColumnWidth + valueColumnWidth} {
		s.Line(rx, top, rx, y, pdf.Black, ruleWidth)
	}
	return y
}

func (c *Composer) paintHorizontalTable(s Surface, y, width float64, rows []TableRow) float64 {
	labelFont := pdf.Helvetica(pdf.Bold, 8)
	valueFont := pdf.Helvetica(pdf.Regular, 8)
	x := c.config.Margin
	colWidth := width / float64(len(rows))
	top := y

	for i, row := range rows {
		cx := x + float64(i)*colWidth
		s.CellRect(cx, y-horizontalRowH, colWidth, horizontalRowH, labelFill, pdf.Black, ruleWidth)
		s.Text(cx+cellInset, y-10, c.fit(row.Label, labelFont, colWidth), labelFont, pdf.Black)
	}
	y -= horizontalRowH

	for i, row := range rows {
		cx := x + float64(i)*colWidth
		s.CellRect(cx, y-horizontalRowH, colWidth, horizontalRowH, pdf.White, pdf.Black, ruleWidth)
		s.Text(cx+cellInset, y-10, c.fit(row.Value, valueFont, colWidth), valueFont, pdf.Black)
	}
	y -= horizontalRowH

	for i := 0; i <= len(rows); i++ {
		rx := x + float64(i)*colWidth
		s.Line(rx, top, rx, y, pdf.Black, ruleWidth)
	}
	return y
}

// fit drops trailing runes until text fits inside a cell of the given width.
// Budgets bound the rune count, fit bounds the painted width.
func (c *Composer) fit(text string, font pdf.FontSpec, cellWidth float64) string {
	room := cellWidth - 2*cellInset
	if c.metrics.StringWidth(text, font) <= room {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && c.metrics.StringWidth(string(runes), font) > room {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
