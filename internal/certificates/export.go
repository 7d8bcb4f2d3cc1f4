package certificates

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const registerSheet = "Registro"

// registerColumns are the register workbook headers with their widths
var registerColumns = []struct {
	title string
	width float64
}{
	{"Emitido em", 20},
	{"Data da coleta", 14},
	{"Empresa", 32},
	{"CNPJ", 20},
	{"Endereço", 40},
	{"Quantidade (L)", 15},
	{"Acondicionamento", 28},
	{"Arquivo", 36},
	{"SHA-256", 66},
}

const quantityColumn = 6

// buildRegisterWorkbook renders the register as a single-sheet workbook with a
// frozen header, an auto filter and a total row
func buildRegisterWorkbook(items []Issuance) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newRegisterStyles(f)
	if err != nil {
		return nil, err
	}

	for i, col := range registerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(registerSheet, cell, col.title); err != nil {
			return nil, err
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(registerSheet, name, name, col.width); err != nil {
			return nil, err
		}
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(registerColumns), 1)
	if err := f.SetCellStyle(registerSheet, "A1", lastCol, styles.header); err != nil {
		return nil, err
	}

	for i, item := range items {
		row := i + 2
		values := []any{
			item.IssuedAt,
			item.CollectionDate,
			item.CompanyName,
			item.TaxID,
			item.Address,
			item.QuantityLiters,
			item.Packaging,
			item.Filename,
			item.SHA256,
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(registerSheet, first, &values); err != nil {
			return nil, fmt.Errorf("failed to write register row %d: %w", row, err)
		}
		if err := f.SetCellStyle(registerSheet, first, first, styles.timestamp); err != nil {
			return nil, err
		}
		qty, _ := excelize.CoordinatesToCellName(quantityColumn, row)
		if err := f.SetCellStyle(registerSheet, qty, qty, styles.quantity); err != nil {
			return nil, err
		}
	}

	totalRow := len(items) + 2
	label, _ := excelize.CoordinatesToCellName(quantityColumn-1, totalRow)
	total, _ := excelize.CoordinatesToCellName(quantityColumn, totalRow)
	if err := f.SetCellValue(registerSheet, label, "Total"); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		top, _ := excelize.CoordinatesToCellName(quantityColumn, 2)
		bottom, _ := excelize.CoordinatesToCellName(quantityColumn, totalRow-1)
		if err := f.SetCellFormula(registerSheet, total, fmt.Sprintf("SUM(%s:%s)", top, bottom)); err != nil {
			return nil, err
		}
	} else if err := f.SetCellValue(registerSheet, total, 0); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(registerSheet, label, total, styles.total); err != nil {
		return nil, err
	}

	if err := f.SetPanes(registerSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}
	if err := f.AutoFilter(registerSheet, "A1:"+lastCol, nil); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize register: %w", err)
	}
	return buf.Bytes(), nil
}

type registerStyles struct {
	header    int
	timestamp int
	quantity  int
	total     int
}

func newRegisterStyles(f *excelize.File) (registerStyles, error) {
	var s registerStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E7A4D"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	timestampFormat := "dd/mm/yyyy hh:mm"
	s.timestamp, err = f.NewStyle(&excelize.Style{CustomNumFmt: &timestampFormat})
	if err != nil {
		return s, err
	}

	quantityFormat := "#,##0.00"
	s.quantity, err = f.NewStyle(&excelize.Style{CustomNumFmt: &quantityFormat})
	if err != nil {
		return s, err
	}

	s.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &quantityFormat,
	})
	return s, err
}
