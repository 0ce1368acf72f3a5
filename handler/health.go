package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CredentialValidator reports whether the configured API key is accepted
// by the provider.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context) bool
}

// HealthHandler serves the service banner and health probe.
type HealthHandler struct {
	apiKeyConfigured bool
	validator        CredentialValidator
}

func NewHealthHandler(apiKeyConfigured bool, validator CredentialValidator) *HealthHandler {
	return &HealthHandler{
		apiKeyConfigured: apiKeyConfigured,
		validator:        validator,
	}
}

// Health always answers 200; the body reports whether the OpenAI key is
// present and whether the provider accepts it.
func (h *HealthHandler) Health(c *gin.Context) {
	valid := false
	if h.apiKeyConfigured && h.validator != nil {
		valid = h.validator.ValidateCredentials(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                    "healthy",
		"openai_api_key_configured": h.apiKeyConfigured,
		"openai_api_key_valid":      valid,
	})
}

// Root returns the service banner.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Audio Transcription Summarizer API"})
}
