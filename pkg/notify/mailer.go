package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoRecipients is returned when an email has no To address
var ErrNoRecipients = errors.New("no recipients specified")

// Email is an outgoing message with optional attachments
type Email struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment represents an email attachment
type Attachment struct {
	Name        string
	Data        []byte
	ContentType string
}

// Mailer sends emails
type Mailer interface {
	Send(ctx context.Context, email *Email) error
}

// SESAPI is the subset of the SES v2 client used by the mailer
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer delivers raw MIME messages through Amazon SES
type SESMailer struct {
	client   SESAPI
	from     mail.Address
	boundary func() string
	logger   *zap.Logger
}

// NewSESMailer creates a mailer sending from fromAddress
func NewSESMailer(cfg aws.Config, fromAddress, fromName string, logger *zap.Logger) *SESMailer {
	return newSESMailer(sesv2.NewFromConfig(cfg), fromAddress, fromName, logger)
}

func newSESMailer(client SESAPI, fromAddress, fromName string, logger *zap.Logger) *SESMailer {
	return &SESMailer{
		client:   client,
		from:     mail.Address{Name: fromName, Address: fromAddress},
		boundary: func() string { return "part-" + uuid.NewString() },
		logger:   logger,
	}
}

// Send delivers the email
func (m *SESMailer) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	m.logger.Info("Sending email",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject))

	msg := m.buildMessage(email)
	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from.Address),
		Destination:      &types.Destination{ToAddresses: email.To},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: msg},
		},
	})
	if err != nil {
		m.logger.Error("Failed to send email",
			zap.Error(err),
			zap.Strings("to", email.To))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent successfully",
		zap.Strings("to", email.To),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// buildMessage renders a multipart/mixed message when attachments are present
// and a single text/plain part otherwise
func (m *SESMailer) buildMessage(email *Email) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", m.from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(email.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(email.Body)
		return buf.Bytes()
	}

	boundary := m.boundary()
	fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": boundary}))

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(email.Body)
	buf.WriteString("\r\n")

	for _, attachment := range email.Attachments {
		contentType := attachment.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", mime.FormatMediaType(contentType, map[string]string{"name": attachment.Name}))
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: %s\r\n\r\n", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Name}))
		buf.WriteString(encodeBase64Lines(attachment.Data))
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

// encodeBase64Lines wraps base64 output at 76 columns
func encodeBase64Lines(data []byte) string {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)

	var b strings.Builder
	for len(encoded) > lineLen {
		b.WriteString(encoded[:lineLen])
		b.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	b.WriteString(encoded)
	b.WriteString("\r\n")
	return b.String()
}

// LogMailer only logs outgoing email. It is used when SES is not configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}
	names := make([]string, 0, len(email.Attachments))
	for _, a := range email.Attachments {
		names = append(names, a.Name)
	}
	m.logger.Info("Email delivery disabled, dropping message",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
		zap.Strings("attachments", names))
	return nil
}
