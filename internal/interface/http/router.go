package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-rag/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	useJSONFieldNames()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.CORSOrigins, cfg.Auth.Header),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/", handler.Root)
	router.GET("/health", handler.Health)

	protected := []gin.HandlerFunc{
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
		apiKeyMiddleware(cfg.Auth.Header, cfg.Auth.APIKeys),
	}
	for _, prefix := range []string{"/api/v1/faq", "/faq"} {
		group := router.Group(prefix, protected...)
		group.POST("/ask", handler.Ask)
		group.GET("/search", handler.Search)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}
