package certificates

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"oleotrax/certificate-portal/pkg/pdf"
)

var (
	// ErrInvalidInput reports a missing or empty field, or text the layout
	// engine cannot place.
	ErrInvalidInput = pdf.ErrInvalidInput
	// ErrInvalidDate reports a collection date that cannot be parsed
	ErrInvalidDate = errors.New("invalid date")
	// ErrNotFound is returned by repositories for unknown IDs
	ErrNotFound = errors.New("not found")
)

// CertificateRequest holds the six fields printed on a certificate
type CertificateRequest struct {
	CollectionDate string  `json:"collection_date"` // YYYY-MM-DD
	CompanyName    string  `json:"company_name"`
	TaxID          string  `json:"tax_id"`
	Address        string  `json:"address"`
	QuantityLiters float64 `json:"quantity_liters"`
	Packaging      string  `json:"packaging"`
}

// Validate checks that every field is present
func (r CertificateRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"collection_date", r.CollectionDate},
		{"company_name", r.CompanyName},
		{"tax_id", r.TaxID},
		{"address", r.Address},
		{"packaging", r.Packaging},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	if math.IsNaN(r.QuantityLiters) || math.IsInf(r.QuantityLiters, 0) || r.QuantityLiters < 0 {
		return fmt.Errorf("%w: quantity_liters must be a non-negative number", ErrInvalidInput)
	}
	return nil
}

// Issuance is one entry of the issued-certificate register
type Issuance struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CollectionDate string         `json:"collection_date" gorm:"size:10;index"`
	CompanyName    string         `json:"company_name" gorm:"size:255;index"`
	TaxID          string         `json:"tax_id" gorm:"size:32;index"`
	Address        string         `json:"address" gorm:"type:text"`
	QuantityLiters float64        `json:"quantity_liters"`
	Packaging      string         `json:"packaging" gorm:"type:text"`
	Filename       string         `json:"filename" gorm:"size:255"`
	SHA256         string         `json:"sha256" gorm:"column:sha256;size:64;index"`
	SizeBytes      int            `json:"size_bytes"`
	ArchiveKey     *string        `json:"archive_key,omitempty" gorm:"size:512"`
	Layout         datatypes.JSON `json:"layout"`
	IssuedAt       time.Time      `json:"issued_at" gorm:"index"`
}

// TableName pins the register table name
func (Issuance) TableName() string {
	return "certificate_issuances"
}

// Request rebuilds the request the issuance was rendered from
func (i *Issuance) Request() CertificateRequest {
	return CertificateRequest{
		CollectionDate: i.CollectionDate,
		CompanyName:    i.CompanyName,
		TaxID:          i.TaxID,
		Address:        i.Address,
		QuantityLiters: i.QuantityLiters,
		Packaging:      i.Packaging,
	}
}

// IssuedCertificate is a rendered certificate ready for delivery
type IssuedCertificate struct {
	Issuance *Issuance
	Filename string
	PDF      []byte
}

// IssuanceFilter narrows register queries
type IssuanceFilter struct {
	TaxID    *string    `form:"tax_id"`
	From     *time.Time `form:"-"`
	To       *time.Time `form:"-"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// IssuanceList is a page of register entries
type IssuanceList struct {
	Items    []Issuance `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
