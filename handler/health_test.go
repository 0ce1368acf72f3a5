package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubValidator struct {
	valid  bool
	called bool
}

func (s *stubValidator) ValidateCredentials(ctx context.Context) bool {
	s.called = true
	return s.valid
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		configured     bool
		validator      *stubValidator
		wantConfigured bool
		wantValid      bool
		wantCalled     bool
	}{
		{
			name:           "configured and valid",
			configured:     true,
			validator:      &stubValidator{valid: true},
			wantConfigured: true,
			wantValid:      true,
			wantCalled:     true,
		},
		{
			name:           "configured but rejected",
			configured:     true,
			validator:      &stubValidator{valid: false},
			wantConfigured: true,
			wantValid:      false,
			wantCalled:     true,
		},
		{
			name:           "not configured",
			configured:     false,
			validator:      &stubValidator{valid: true},
			wantConfigured: false,
			wantValid:      false,
			wantCalled:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.configured, tt.validator)

			router := gin.New()
			router.GET("/health", handler.Health)

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if response["status"] != "healthy" {
				t.Errorf("Expected status 'healthy', got '%v'", response["status"])
			}
			if response["openai_api_key_configured"] != tt.wantConfigured {
				t.Errorf("Expected openai_api_key_configured %v, got %v", tt.wantConfigured, response["openai_api_key_configured"])
			}
			if response["openai_api_key_valid"] != tt.wantValid {
				t.Errorf("Expected openai_api_key_valid %v, got %v", tt.wantValid, response["openai_api_key_valid"])
			}
			if tt.validator.called != tt.wantCalled {
				t.Errorf("Expected validator called=%v, got %v", tt.wantCalled, tt.validator.called)
			}
		})
	}
}

func TestHealthHandlerNilValidator(t *testing.T) {
	handler := NewHealthHandler(true, nil)

	router := gin.New()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["openai_api_key_valid"] != false {
		t.Errorf("Expected openai_api_key_valid false without a validator, got %v", response["openai_api_key_valid"])
	}
}

func TestRootHandler(t *testing.T) {
	handler := NewHealthHandler(false, nil)

	router := gin.New()
	router.GET("/", handler.Root)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["message"] != "Audio Transcription Summarizer API" {
		t.Errorf("Expected service banner, got '%s'", response["message"])
	}
}
