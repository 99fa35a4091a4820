package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/internal/infra/config"
	apperrors "github.com/yanqian/faq-rag/pkg/errors"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler wires the HTTP transport to the FAQ service.
type Handler struct {
	faqSvc     faq.Service
	authHeader string
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler constructs the root HTTP handler.
func NewHandler(faqSvc faq.Service, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		faqSvc:     faqSvc,
		authHeader: cfg.Auth.Header,
		logger:     logger.With("component", "http.handler"),
		now:        time.Now,
	}
}

// Root describes the API.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "FAQ RAG System API",
		"version": Version,
		"health":  "/health",
		"authentication": gin.H{
			"type":   "API Key",
			"header": h.authHeader,
		},
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	FAQs      int64  `json:"faqs"`
	Variants  int64  `json:"variants"`
	Timestamp string `json:"timestamp"`
}

// Health reports vector store connectivity and content counts. It is public.
func (h *Handler) Health(c *gin.Context) {
	status := h.faqSvc.Health(c.Request.Context())
	body := healthResponse{
		Status:    "healthy",
		Database:  "connected",
		FAQs:      status.Stats.Entries,
		Variants:  status.Stats.Variants,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	if !status.Healthy {
		h.logger.Error("health check failed", "error", status.Err)
		body.Status = "unhealthy"
		body.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Ask answers a question posted as JSON.
func (h *Handler) Ask(c *gin.Context) {
	var req faq.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	h.answer(c, req)
}

// Search answers a question passed as query parameters.
func (h *Handler) Search(c *gin.Context) {
	var req faq.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	h.answer(c, req)
}

func (h *Handler) answer(c *gin.Context, req faq.Request) {
	resp, err := h.faqSvc.Answer(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "faq_failed"
		if apperrors.IsCode(err, "invalid_input") {
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
