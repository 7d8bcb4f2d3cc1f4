package certificates

import (
	"fmt"
	"strings"
)

// TableOrientation selects how the data table is drawn
type TableOrientation string

const (
	// TableVertical draws one label/value row per field
	TableVertical TableOrientation = "vertical"
	// TableHorizontal draws a header row of labels above one row of values
	TableHorizontal TableOrientation = "horizontal"
)

// EmblemMode selects what is painted inside the header circle
type EmblemMode string

const (
	EmblemLogo     EmblemMode = "logo"
	EmblemInitials EmblemMode = "initials"
)

// ParseTableOrientation parses a configuration value
func ParseTableOrientation(s string) (TableOrientation, error) {
	switch o := TableOrientation(strings.ToLower(strings.TrimSpace(s))); o {
	case TableVertical, TableHorizontal:
		return o, nil
	default:
		return "", fmt.Errorf("unknown table orientation %q", s)
	}
}

// ParseEmblemMode parses a configuration value
func ParseEmblemMode(s string) (EmblemMode, error) {
	switch m := EmblemMode(strings.ToLower(strings.TrimSpace(s))); m {
	case EmblemLogo, EmblemInitials:
		return m, nil
	default:
		return "", fmt.Errorf("unknown emblem mode %q", s)
	}
}

// Issuer describes the organization that signs the certificate
type Issuer struct {
	Name     string `json:"name"`
	TaxID    string `json:"tax_id"`
	Permit   string `json:"permit"`
	Phone    string `json:"phone"`
	Tagline  string `json:"tagline"`
	Initials string `json:"initials"`
}

// LayoutConfig parameterizes the certificate layout
type LayoutConfig struct {
	TableOrientation TableOrientation `json:"table_orientation"`
	// PackagingBudget is the maximum number of characters of the packaging
	// value; 0 disables truncation.
	PackagingBudget int `json:"packaging_budget"`
	// CellBudget caps every table value; 0 disables it.
	CellBudget int        `json:"cell_budget"`
	EmblemMode EmblemMode `json:"emblem_mode"`
	LogoPath   string     `json:"logo_path,omitempty"`
	Margin     float64    `json:"margin"`
	Issuer     Issuer     `json:"issuer"`
}

// DefaultIssuer returns the issuer printed on every certificate
func DefaultIssuer() Issuer {
	return Issuer{
		Name:     "OLEOTRAX LTDA",
		TaxID:    "59.750.105/0001-00",
		Permit:   "Autorização Ambiental IMA/SC nº 097/2025",
		Phone:    "(47) 99112-5906",
		Tagline:  "Juntos por um futuro mais limpo e sustentável.",
		Initials: "OT",
	}
}

// DefaultLayoutConfig returns the canonical vertical layout
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		TableOrientation: TableVertical,
		PackagingBudget:  25,
		EmblemMode:       EmblemLogo,
		Margin:           25,
		Issuer:           DefaultIssuer(),
	}
}

// HorizontalLayoutConfig returns the single data row variant. Its columns
// are narrower, so values get a tighter budget.
func HorizontalLayoutConfig() LayoutConfig {
	cfg := DefaultLayoutConfig()
	cfg.TableOrientation = TableHorizontal
	cfg.PackagingBudget = 18
	cfg.CellBudget = 20
	return cfg
}

// Validate rejects configurations the composer cannot draw
func (c LayoutConfig) Validate() error {
	if _, err := ParseTableOrientation(string(c.TableOrientation)); err != nil {
		return err
	}
	if _, err := ParseEmblemMode(string(c.EmblemMode)); err != nil {
		return err
	}
	if c.PackagingBudget < 0 || c.CellBudget < 0 {
		return fmt.Errorf("truncation budgets must not be negative")
	}
	if c.Margin <= 0 {
		return fmt.Errorf("margin must be positive")
	}
	if strings.TrimSpace(c.Issuer.Name) == "" {
		return fmt.Errorf("issuer name is required")
	}
	return nil
}
