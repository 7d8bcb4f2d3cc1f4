package certificates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"oleotrax/certificate-portal/pkg/notify"
	"oleotrax/certificate-portal/pkg/security"
	"oleotrax/certificate-portal/pkg/storage"
)

// EventCertificateIssued is published after a certificate enters the register
const EventCertificateIssued = "certificate.issued"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ServiceOptions wires the optional collaborators of the service. A nil Store
// disables archiving; nil Mailer and Events fall back to logging and no-op
// implementations.
type ServiceOptions struct {
	Store   storage.S3Client
	Bucket  string
	Mailer  notify.Mailer
	Events  notify.Publisher
	LinkTTL time.Duration
}

// Service issues certificates and maintains their register
type Service struct {
	composer *Composer
	repo     Repository
	store    storage.S3Client
	bucket   string
	mailer   notify.Mailer
	events   notify.Publisher
	verifier *security.Verifier
	linkTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new certificate service
func NewService(composer *Composer, repo Repository, opts ServiceOptions, logger *zap.Logger) *Service {
	s := &Service{
		composer: composer,
		repo:     repo,
		store:    opts.Store,
		bucket:   opts.Bucket,
		mailer:   opts.Mailer,
		events:   opts.Events,
		linkTTL:  opts.LinkTTL,
		logger:   logger,
		now:      time.Now,
	}
	if s.mailer == nil {
		s.mailer = notify.NewLogMailer(logger)
	}
	if s.events == nil {
		s.events = notify.NopPublisher{}
	}
	if s.linkTTL <= 0 {
		s.linkTTL = 15 * time.Minute
	}
	s.verifier = security.NewVerifier(s.lookupDigest)
	return s
}

// Issue renders the certificate, records it in the register, archives the PDF
// and announces the issuance. Archive and event failures are logged only.
func (s *Service) Issue(ctx context.Context, req CertificateRequest) (*IssuedCertificate, error) {
	data, err := s.composer.Compose(req)
	if err != nil {
		return nil, err
	}

	layout, err := json.Marshal(s.composer.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to encode layout: %w", err)
	}

	digest := security.DigestBytes(data)
	filename := SuggestedFilename(req.CompanyName)
	issuance := &Issuance{
		ID:             uuid.New(),
		CollectionDate: req.CollectionDate,
		CompanyName:    req.CompanyName,
		TaxID:          req.TaxID,
		Address:        req.Address,
		QuantityLiters: req.QuantityLiters,
		Packaging:      req.Packaging,
		Filename:       filename,
		SHA256:         digest.SHA256,
		SizeBytes:      int(digest.SizeBytes),
		Layout:         datatypes.JSON(layout),
		IssuedAt:       s.now().UTC(),
	}

	if err := s.repo.CreateIssuance(ctx, issuance); err != nil {
		return nil, fmt.Errorf("failed to register issuance: %w", err)
	}

	s.archive(ctx, issuance, data)
	s.announce(ctx, issuance)

	s.logger.Info("Certificate issued",
		zap.String("issuance_id", issuance.ID.String()),
		zap.String("company", issuance.CompanyName),
		zap.String("tax_id", issuance.TaxID),
		zap.Int("size_bytes", issuance.SizeBytes))

	return &IssuedCertificate{Issuance: issuance, Filename: filename, PDF: data}, nil
}

func (s *Service) archive(ctx context.Context, issuance *Issuance, data []byte) {
	if s.store == nil {
		return
	}

	key := archiveKey(issuance)
	if err := s.store.Upload(ctx, s.bucket, key, bytes.NewReader(data)); err != nil {
		s.logger.Warn("Failed to archive certificate",
			zap.String("issuance_id", issuance.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.repo.SetArchiveKey(ctx, issuance.ID, key); err != nil {
		s.logger.Warn("Failed to record archive key",
			zap.String("issuance_id", issuance.ID.String()),
			zap.String("key", key),
			zap.Error(err))
		return
	}
	issuance.ArchiveKey = &key
}

func (s *Service) announce(ctx context.Context, issuance *Issuance) {
	event := notify.Event{
		Type:       EventCertificateIssued,
		Subject:    "Certificate issued",
		OccurredAt: issuance.IssuedAt,
		Data: map[string]any{
			"issuance_id":     issuance.ID.String(),
			"company_name":    issuance.CompanyName,
			"tax_id":          issuance.TaxID,
			"collection_date": issuance.CollectionDate,
			"quantity_liters": issuance.QuantityLiters,
			"sha256":          issuance.SHA256,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish issuance event",
			zap.String("issuance_id", issuance.ID.String()),
			zap.Error(err))
	}
}

// archiveKey places certificates under certificates/YYYY/MM/<id>/<filename>
func archiveKey(issuance *Issuance) string {
	return fmt.Sprintf("certificates/%s/%s/%s",
		issuance.IssuedAt.Format("2006/01"), issuance.ID, issuance.Filename)
}

// Deliver e-mails an issued certificate as a PDF attachment
func (s *Service) Deliver(ctx context.Context, issued *IssuedCertificate, to []string) error {
	if len(to) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidInput)
	}

	issuer := s.composer.Config().Issuer
	body := fmt.Sprintf("Prezados,\r\n\r\nSegue em anexo o certificado de coleta e descarte emitido para %s "+
		"referente à coleta de %s.\r\n\r\nAtenciosamente,\r\n%s\r\n",
		issued.Issuance.CompanyName, issued.Issuance.CollectionDate, issuer.Name)

	err := s.mailer.Send(ctx, &notify.Email{
		To:      to,
		Subject: fmt.Sprintf("Certificado de Coleta e Descarte - %s", issued.Issuance.CompanyName),
		Body:    body,
		Attachments: []notify.Attachment{
			{Name: issued.Filename, Data: issued.PDF, ContentType: "application/pdf"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to deliver certificate: %w", err)
	}
	return nil
}

// DeliverIssuance e-mails a certificate already in the register
func (s *Service) DeliverIssuance(ctx context.Context, id uuid.UUID, to []string) error {
	issued, err := s.Reissue(ctx, id)
	if err != nil {
		return err
	}
	return s.Deliver(ctx, issued, to)
}

// Reissue returns the PDF of a registered certificate, from the archive when
// available and otherwise by rendering the stored request again
func (s *Service) Reissue(ctx context.Context, id uuid.UUID) (*IssuedCertificate, error) {
	issuance, err := s.repo.GetIssuance(ctx, id)
	if err != nil {
		return nil, err
	}

	if issuance.ArchiveKey != nil && s.store != nil {
		data, err := s.download(ctx, *issuance.ArchiveKey)
		if err == nil {
			return &IssuedCertificate{Issuance: issuance, Filename: issuance.Filename, PDF: data}, nil
		}
		s.logger.Warn("Archived certificate unavailable, rendering again",
			zap.String("issuance_id", id.String()),
			zap.Error(err))
	}

	composer, err := s.composerFor(issuance)
	if err != nil {
		return nil, fmt.Errorf("failed to render issuance %s: %w", id, err)
	}
	data, err := composer.Compose(issuance.Request())
	if err != nil {
		return nil, fmt.Errorf("failed to render issuance %s: %w", id, err)
	}
	return &IssuedCertificate{Issuance: issuance, Filename: issuance.Filename, PDF: data}, nil
}

// composerFor paints with the layout recorded when the certificate was
// issued, so the output keeps the registered digest after a config change.
// Entries without a snapshot use the current layout.
func (s *Service) composerFor(issuance *Issuance) (*Composer, error) {
	if len(issuance.Layout) == 0 || string(issuance.Layout) == "null" {
		return s.composer, nil
	}

	var layout LayoutConfig
	if err := json.Unmarshal(issuance.Layout, &layout); err != nil {
		return nil, fmt.Errorf("failed to decode layout snapshot: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout snapshot: %w", err)
	}
	return s.composer.WithConfig(layout), nil
}

func (s *Service) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.store.Download(ctx, s.bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// IssuanceDetail is a register entry with a temporary download link
type IssuanceDetail struct {
	Issuance
	DownloadURL string `json:"download_url,omitempty"`
}

// GetIssuance returns one register entry
func (s *Service) GetIssuance(ctx context.Context, id uuid.UUID) (*IssuanceDetail, error) {
	issuance, err := s.repo.GetIssuance(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &IssuanceDetail{Issuance: *issuance}
	if issuance.ArchiveKey != nil && s.store != nil {
		link, err := s.store.GetPresignedURL(ctx, s.bucket, *issuance.ArchiveKey, s.linkTTL)
		if err != nil {
			s.logger.Warn("Failed to presign archive link",
				zap.String("issuance_id", id.String()),
				zap.Error(err))
		} else {
			detail.DownloadURL = link
		}
	}
	return detail, nil
}

// ListIssuances returns a page of the register, newest first
func (s *Service) ListIssuances(ctx context.Context, filter IssuanceFilter) (*IssuanceList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	items, total, err := s.repo.ListIssuances(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuances: %w", err)
	}
	if items == nil {
		items = []Issuance{}
	}
	return &IssuanceList{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// ExportRegister renders the issuances in [from, to) as an XLSX workbook
func (s *Service) ExportRegister(ctx context.Context, from, to time.Time) ([]byte, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: export range is empty", ErrInvalidInput)
	}

	items, _, err := s.repo.ListIssuances(ctx, IssuanceFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to load register: %w", err)
	}

	// oldest first reads naturally in a spreadsheet
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	data, err := buildRegisterWorkbook(items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Register exported",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("entries", len(items)))
	return data, nil
}

// ArchiveRegister exports the register of the month containing month and
// stores it under registers/YYYY-MM.xlsx. Recipients, when given, receive the
// workbook by e-mail.
func (s *Service) ArchiveRegister(ctx context.Context, month time.Time, recipients []string) (string, error) {
	if s.store == nil {
		return "", storage.ErrNotConfigured
	}

	from, to := monthRange(month)
	data, err := s.ExportRegister(ctx, from, to)
	if err != nil {
		return "", err
	}

	key := registerKey(from)
	if err := s.store.Upload(ctx, s.bucket, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to archive register: %w", err)
	}

	if len(recipients) > 0 {
		period := from.Format("01/2006")
		err := s.mailer.Send(ctx, &notify.Email{
			To:      recipients,
			Subject: "Registro de certificados emitidos - " + period,
			Body:    "Segue em anexo o registro mensal de certificados emitidos em " + period + ".\r\n",
			Attachments: []notify.Attachment{{
				Name:        "registro-" + from.Format("2006-01") + ".xlsx",
				Data:        data,
				ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			}},
		})
		if err != nil {
			s.logger.Warn("Failed to mail register", zap.String("key", key), zap.Error(err))
		}
	}
	return key, nil
}

func registerKey(month time.Time) string {
	return "registers/" + month.Format("2006-01") + ".xlsx"
}

// Verify reports whether doc is a certificate issued by this service
func (s *Service) Verify(ctx context.Context, doc io.Reader) (*security.VerificationResult, error) {
	return s.verifier.Verify(ctx, doc)
}

func (s *Service) lookupDigest(ctx context.Context, sum string) (*security.IssuerRecord, bool, error) {
	issuance, err := s.repo.FindBySHA256(ctx, sum)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &security.IssuerRecord{
		ID:          issuance.ID.String(),
		CompanyName: issuance.CompanyName,
		TaxID:       issuance.TaxID,
		IssuedAt:    issuance.IssuedAt,
	}, true, nil
}
