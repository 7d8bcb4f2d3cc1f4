package certificates

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"oleotrax/certificate-portal/pkg/storage"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes  = 10 << 20
)

// CertificateForm is the HTML form post
type CertificateForm struct {
	Date      string `form:"data"`
	Company   string `form:"empresa"`
	TaxID     string `form:"cnpj"`
	Address   string `form:"endereco"`
	Quantity  string `form:"quantidade"`
	Packaging string `form:"acond"`
}

// Request converts the form to a CertificateRequest. Quantities accept a
// decimal comma.
func (f CertificateForm) Request() (CertificateRequest, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(f.Quantity, ",", "."))
	if raw == "" {
		return CertificateRequest{}, fmt.Errorf("%w: quantidade is required", ErrInvalidInput)
	}
	quantity, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return CertificateRequest{}, fmt.Errorf("%w: quantidade must be a number", ErrInvalidInput)
	}
	return CertificateRequest{
		CollectionDate: f.Date,
		CompanyName:    strings.TrimSpace(f.Company),
		TaxID:          strings.TrimSpace(f.TaxID),
		Address:        strings.TrimSpace(f.Address),
		QuantityLiters: quantity,
		Packaging:      strings.TrimSpace(f.Packaging),
	}, nil
}

// IssueRequest is the JSON body of POST /api/v1/certificates
type IssueRequest struct {
	CertificateRequest
	DeliverTo []string `json:"deliver_to,omitempty"`
}

// DeliverRequest is the JSON body of POST /api/v1/certificates/:id/deliver
type DeliverRequest struct {
	To []string `json:"to" binding:"required,min=1"`
}

// Handler handles HTTP requests for certificate operations
type Handler struct {
	service *Service
	auth    gin.HandlerFunc
	logger  *zap.Logger
}

// NewHandler creates a new certificates handler. auth guards the register
// endpoints; nil leaves them open.
func NewHandler(service *Service, auth gin.HandlerFunc, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

// RegisterFormRoutes registers the browser form and its download endpoint
func (h *Handler) RegisterFormRoutes(router gin.IRouter) {
	router.GET("/", h.showForm)
	router.POST("/gerar", h.generateFromForm)
}

// RegisterRoutes registers certificate API routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	certificates := router.Group("/certificates")
	{
		certificates.POST("", h.issueCertificate)
		certificates.POST("/verify", h.verifyCertificate)

		register := certificates.Group("")
		if h.auth != nil {
			register.Use(h.auth)
		}
		register.GET("", h.listIssuances)
		register.GET("/register.xlsx", h.exportRegister)
		register.GET("/:id", h.getIssuance)
		register.POST("/:id/deliver", h.deliverIssuance)
	}
}

// showForm handles GET /
func (h *Handler) showForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, CertificateForm{}, "")
}

func (h *Handler) renderForm(c *gin.Context, status int, values CertificateForm, message string) {
	c.Render(status, render.HTML{
		Template: formTemplate,
		Name:     "form",
		Data: formPage{
			Issuer: h.service.composer.Config().Issuer.Name,
			Error:  message,
			Values: values,
		},
	})
}

// generateFromForm handles POST /gerar
func (h *Handler) generateFromForm(c *gin.Context) {
	var form CertificateForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderForm(c, http.StatusBadRequest, form, "Não foi possível ler o formulário.")
		return
	}

	req, err := form.Request()
	if err == nil {
		var issued *IssuedCertificate
		issued, err = h.service.Issue(c.Request.Context(), req)
		if err == nil {
			h.sendPDF(c, issued)
			return
		}
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Failed to generate certificate", zap.Error(err))
		h.renderForm(c, status, form, "Erro ao gerar o certificado. Tente novamente.")
		return
	}
	h.renderForm(c, status, form, formMessage(err))
}

func formMessage(err error) string {
	if errors.Is(err, ErrInvalidDate) {
		return "Data da coleta inválida."
	}
	return "Preencha todos os campos obrigatórios corretamente."
}

// issueCertificate handles POST /api/v1/certificates
func (h *Handler) issueCertificate(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issued, err := h.service.Issue(c.Request.Context(), req.CertificateRequest)
	if err != nil {
		h.writeError(c, "Failed to issue certificate", err)
		return
	}

	if len(req.DeliverTo) > 0 {
		status := "sent"
		if err := h.service.Deliver(c.Request.Context(), issued, req.DeliverTo); err != nil {
			h.logger.Warn("Failed to deliver certificate",
				zap.String("issuance_id", issued.Issuance.ID.String()),
				zap.Error(err))
			status = "failed"
		}
		c.Header("X-Delivery-Status", status)
	}

	h.sendPDF(c, issued)
}

func (h *Handler) sendPDF(c *gin.Context, issued *IssuedCertificate) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": issued.Filename}))
	c.Header("X-Issuance-ID", issued.Issuance.ID.String())
	c.Header("X-Content-SHA256", issued.Issuance.SHA256)
	c.Data(http.StatusOK, pdfContentType, issued.PDF)
}

// verifyCertificate handles POST /api/v1/certificates/verify
func (h *Handler) verifyCertificate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.service.Verify(c.Request.Context(), file)
	if err != nil {
		h.writeError(c, "Failed to verify certificate", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// listIssuances handles GET /api/v1/certificates
func (h *Handler) listIssuances(c *gin.Context) {
	filter := IssuanceFilter{
		Page:     h.getIntParam(c, "page", 1),
		PageSize: h.getIntParam(c, "page_size", defaultPageSize),
	}
	if taxID := c.Query("tax_id"); taxID != "" {
		filter.TaxID = &taxID
	}

	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter.From, filter.To = from, to

	list, err := h.service.ListIssuances(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, "Failed to list issuances", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// exportRegister handles GET /api/v1/certificates/register.xlsx. The range
// defaults to the current month.
func (h *Handler) exportRegister(c *gin.Context) {
	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end := monthRange(h.service.now().UTC())
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}

	data, err := h.service.ExportRegister(c.Request.Context(), start, end)
	if err != nil {
		h.writeError(c, "Failed to export register", err)
		return
	}

	filename := fmt.Sprintf("registro_%s_%s.xlsx", start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// getIssuance handles GET /api/v1/certificates/:id
func (h *Handler) getIssuance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuance ID"})
		return
	}

	detail, err := h.service.GetIssuance(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to get issuance", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// deliverIssuance handles POST /api/v1/certificates/:id/deliver
func (h *Handler) deliverIssuance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuance ID"})
		return
	}

	var req DeliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.DeliverIssuance(c.Request.Context(), id, req.To); err != nil {
		h.writeError(c, "Failed to deliver issuance", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent", "to": req.To})
}

// parseRange reads inclusive YYYY-MM-DD bounds and returns [from, to+1day)
func parseRange(fromValue, toValue string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromValue != "" {
		t, err := time.Parse("2006-01-02", fromValue)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from date %q", fromValue)
		}
		from = &t
	}
	if toValue != "" {
		t, err := time.Parse("2006-01-02", toValue)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to date %q", toValue)
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, fmt.Errorf("from must not be after to")
	}
	return from, to, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
