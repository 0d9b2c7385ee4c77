package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ValidatorConfig holds trigger request validation configuration.
type ValidatorConfig struct {
	MaxScriptLength int // maximum script body length in bytes
}

func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxScriptLength: 1 << 20, // 1MB
	}
}

// Validator performs trigger request validation. The script body itself is
// opaque: it is arbitrary untrusted shell content by definition, so only its
// size is checked here.
type Validator struct {
	config ValidatorConfig
}

func NewValidator(config ValidatorConfig) *Validator {
	return &Validator{config: config}
}

// ValidateScript checks the script payload size.
func (v *Validator) ValidateScript(script string) error {
	if len(script) == 0 {
		return &ValidationError{Field: "script", Message: "script is required"}
	}
	if len(script) > v.config.MaxScriptLength {
		return &ValidationError{Field: "script", Message: "script exceeds maximum length"}
	}
	return nil
}

// ValidateResumeURL checks that the callback address is a usable http(s) URL.
func (v *Validator) ValidateResumeURL(raw string) error {
	if raw == "" {
		return &ValidationError{Field: "resume_url", Message: "resume_url is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return &ValidationError{Field: "resume_url", Message: "resume_url is not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "resume_url", Message: "resume_url must use http or https"}
	}
	return nil
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// BodySizeLimitMiddleware limits request body size.
func BodySizeLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Next()
	}
}

// RequestIDMiddleware attaches a request ID for correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
