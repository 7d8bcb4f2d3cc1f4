package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Digest is the content fingerprint of an issued document
type Digest struct {
	SHA256    string
	SizeBytes int64
}

// DigestBytes fingerprints an in-memory document
func DigestBytes(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest{SHA256: hex.EncodeToString(sum[:]), SizeBytes: int64(len(data))}
}

// DigestReader fingerprints a streamed document
func DigestReader(r io.Reader) (Digest, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to read document: %w", err)
	}
	return Digest{SHA256: hex.EncodeToString(h.Sum(nil)), SizeBytes: n}, nil
}

// IssuerRecord describes the register entry matching a digest
type IssuerRecord struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	TaxID       string    `json:"tax_id"`
	IssuedAt    time.Time `json:"issued_at"`
}

// VerificationResult reports whether a document was issued by this service
type VerificationResult struct {
	Verified bool          `json:"verified"`
	SHA256   string        `json:"sha256"`
	Size     int64         `json:"size_bytes"`
	Issuance *IssuerRecord `json:"issuance,omitempty"`
}

// DigestLookup resolves a digest to its register entry; ok is false when the
// digest is unknown
type DigestLookup func(ctx context.Context, sha256 string) (record *IssuerRecord, ok bool, err error)

// Verifier checks uploaded documents against the register
type Verifier struct {
	lookup DigestLookup
}

func NewVerifier(lookup DigestLookup) *Verifier {
	return &Verifier{lookup: lookup}
}

func (v *Verifier) Verify(ctx context.Context, doc io.Reader) (*VerificationResult, error) {
	digest, err := DigestReader(doc)
	if err != nil {
		return nil, err
	}

	record, ok, err := v.lookup(ctx, digest.SHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to look up digest: %w", err)
	}

	result := &VerificationResult{SHA256: digest.SHA256, Size: digest.SizeBytes}
	if ok {
		result.Verified = true
		result.Issuance = record
	}
	return result, nil
}
