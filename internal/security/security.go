// Package security holds the HTTP hardening middleware for the evaluation API.
package security

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
)

// Config bounds what a single request may cost the service
type Config struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	EnableHSTS     bool
}

// DefaultConfig allows tender snapshots up to 8 MiB and one minute of work
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:   8 << 20,
		RequestTimeout: time.Minute,
	}
}

// Middleware applies the request limits and response headers
type Middleware struct {
	config Config
}

func NewMiddleware(config Config) *Middleware {
	defaults := DefaultConfig()
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	return &Middleware{config: config}
}

// RequestGuards returns the per-route checks for endpoints that accept bodies
func (m *Middleware) RequestGuards() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.ValidateContentType, m.LimitBody, m.RequestTimeout}
}

// SecurityHeaders sets headers for a JSON-only API
func (m *Middleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	c.Header("Referrer-Policy", "no-referrer")
	c.Header("Cache-Control", "no-store")

	if m.config.EnableHSTS {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	c.Next()
}

// ValidateContentType rejects request bodies that are not JSON
func (m *Middleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
		c.Next()
		return
	}

	mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil || mediaType != "application/json" {
		appErr := errors.NewMalformedInputError("Content-Type", err)
		appErr.HTTPStatus = http.StatusUnsupportedMediaType
		_ = c.Error(appErr)
		c.Abort()
		return
	}

	c.Next()
}

// LimitBody caps the number of bytes a handler can read from the body
func (m *Middleware) LimitBody(c *gin.Context) {
	if c.Request.ContentLength > m.config.MaxBodyBytes {
		appErr := errors.NewMalformedInputError("body", nil)
		appErr.HTTPStatus = http.StatusRequestEntityTooLarge
		_ = c.Error(appErr)
		c.Abort()
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.config.MaxBodyBytes)
	c.Next()
}

// RequestTimeout bounds synchronous work with a context deadline
func (m *Middleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(m.config.RequestTimeout.Seconds())))

	c.Next()
}
