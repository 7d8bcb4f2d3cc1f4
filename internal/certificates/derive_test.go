package certificates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDate(t *testing.T) {
	parts, err := DeriveDate("2025-01-15")
	require.NoError(t, err)

	assert.Equal(t, 15, parts.Day)
	assert.Equal(t, 1, parts.Month)
	assert.Equal(t, "janeiro", parts.MonthName)
	assert.Equal(t, 2025, parts.Year)
	assert.Equal(t, "15/01/2025", parts.Formatted)
	assert.Equal(t, "15 de janeiro de 2025", parts.LongForm())
}

func TestDeriveDate_PadsDayAndMonth(t *testing.T) {
	parts, err := DeriveDate(" 2024-03-05 ")
	require.NoError(t, err)
	assert.Equal(t, "05/03/2024", parts.Formatted)
	assert.Equal(t, "5 de março de 2024", parts.LongForm())
}

func TestDeriveDate_Invalid(t *testing.T) {
	for _, value := range []string{"", "2025-13-01", "2025-00-01", "2025-02-30", "2025/01/15", "15-01-2025"} {
		_, err := DeriveDate(value)
		assert.ErrorIs(t, err, ErrInvalidDate, value)
	}
}

func TestMonthName(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{1, "janeiro"},
		{3, "março"},
		{12, "dezembro"},
	}
	for _, tt := range tests {
		got, err := MonthName(tt.month)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, month := range []int{0, 13, -1} {
		_, err := MonthName(month)
		assert.ErrorIs(t, err, ErrInvalidDate)
	}
}

func TestTableRows(t *testing.T) {
	date, err := DeriveDate("2025-01-15")
	require.NoError(t, err)

	req := sampleRequest()
	req.QuantityLiters = 12.5
	req.Packaging = "Bombona plástica 50L com tampa rosqueável"

	rows := TableRows(req, date, DefaultLayoutConfig())
	require.Len(t, rows, 6)

	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = row.Label
	}
	assert.Equal(t, expectedLabels, labels)

	assert.Equal(t, "Óleo vegetal usado", rows[0].Value)
	assert.Equal(t, "12.5 L", rows[1].Value)
	assert.Equal(t, "Litros (L)", rows[2].Value)
	assert.Equal(t, "Classe II", rows[3].Value)
	assert.Equal(t, "15/01/2025", rows[4].Value)
	assert.Equal(t, "Bombona plástica 50L com ", rows[5].Value)
	assert.Len(t, []rune(rows[5].Value), 25)
}

func TestTableRows_Budgets(t *testing.T) {
	date, err := DeriveDate("2025-01-15")
	require.NoError(t, err)
	req := sampleRequest()
	req.Packaging = strings.Repeat("x", 40)

	cfg := DefaultLayoutConfig()
	cfg.PackagingBudget = 0
	rows := TableRows(req, date, cfg)
	assert.Len(t, rows[5].Value, 40)

	cfg.CellBudget = 5
	rows = TableRows(req, date, cfg)
	for _, row := range rows {
		assert.LessOrEqual(t, len([]rune(row.Value)), 5, row.Label)
	}
	assert.Equal(t, "Óleo ", rows[0].Value)
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "500", FormatQuantity(500))
	assert.Equal(t, "0", FormatQuantity(0))
	assert.Equal(t, "12.75", FormatQuantity(12.75))
}

func TestSuggestedFilename(t *testing.T) {
	assert.Equal(t, "Certificado_Acme_Foods.pdf", SuggestedFilename("Acme Foods"))
	assert.Contains(t, SuggestedFilename("Acme Foods"), "Acme_Foods")
	assert.Equal(t, "Certificado_Padaria_São_João_&_Cia.pdf", SuggestedFilename("Padaria São João & Cia"))
}

func TestCertificateRequest_Validate(t *testing.T) {
	assert.NoError(t, sampleRequest().Validate())

	zero := sampleRequest()
	zero.QuantityLiters = 0
	assert.NoError(t, zero.Validate())

	mutations := map[string]func(*CertificateRequest){
		"collection_date": func(r *CertificateRequest) { r.CollectionDate = "" },
		"company_name":    func(r *CertificateRequest) { r.CompanyName = " " },
		"tax_id":          func(r *CertificateRequest) { r.TaxID = "" },
		"address":         func(r *CertificateRequest) { r.Address = "\t" },
		"packaging":       func(r *CertificateRequest) { r.Packaging = "" },
		"quantity_liters": func(r *CertificateRequest) { r.QuantityLiters = -1 },
	}
	for field, mutate := range mutations {
		req := sampleRequest()
		mutate(&req)
		err := req.Validate()
		assert.ErrorIs(t, err, ErrInvalidInput, field)
		assert.Contains(t, err.Error(), field)
	}
}

func TestLayoutConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultLayoutConfig().Validate())
	assert.NoError(t, HorizontalLayoutConfig().Validate())

	cfg := DefaultLayoutConfig()
	cfg.TableOrientation = "diagonal"
	assert.Error(t, cfg.Validate())

	cfg = DefaultLayoutConfig()
	cfg.PackagingBudget = -1
	assert.Error(t, cfg.Validate())

	orientation, err := ParseTableOrientation(" Horizontal ")
	require.NoError(t, err)
	assert.Equal(t, TableHorizontal, orientation)

	mode, err := ParseEmblemMode("INITIALS")
	require.NoError(t, err)
	assert.Equal(t, EmblemInitials, mode)
}
