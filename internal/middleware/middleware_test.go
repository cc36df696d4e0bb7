package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/support-router/pkg/logger"
)

const testSecret = "test-secret"

func okHandler(t *testing.T, check func(r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	valid, err := IssueToken(testSecret, "user-42", []string{ScopeChat}, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expired, _ := IssueToken(testSecret, "user-42", nil, -time.Minute)
	wrongKey, _ := IssueToken("other", "user-42", nil, time.Minute)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			h := Auth(testSecret)(okHandler(t, func(r *http.Request) {
				gotUser = GetUserID(r.Context())
				if !HasScope(r.Context(), ScopeChat) {
					t.Error("chat scope missing from context")
				}
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && gotUser != "user-42" {
				t.Errorf("user = %q", gotUser)
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	token, _ := IssueToken(testSecret, "u", []string{ScopeChat}, time.Minute)
	h := Auth(testSecret)(RequireScope(ScopeDocuments)(okHandler(t, nil)))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestLoggingCorrelationID(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Logging(logger.NewNop()))
	var seen string
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen != "corr-123" {
		t.Errorf("context correlation id = %q", seen)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Errorf("response header = %q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/2", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("correlation id should be generated")
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute)(okHandler(t, nil))
	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://support.example"})(okHandler(t, nil))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat/message", nil)
	req.Header.Set("Origin", "https://support.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://support.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateMessageContent("  "); err == nil {
		t.Error("blank message should fail")
	}
	if err := ValidateMessageContent(strings.Repeat("a", MaxMessageLength+1)); err == nil {
		t.Error("oversized message should fail")
	}
	if err := ValidateMessageContent("Where is my order?"); err != nil {
		t.Errorf("valid message: %v", err)
	}
	if err := ValidateConversationID("not-a-uuid"); err == nil {
		t.Error("bad conversation id should fail")
	}
	if err := ValidateTitle(""); err == nil {
		t.Error("empty title should fail")
	}
	if err := ValidateDocumentContent("\xff"); err == nil {
		t.Error("invalid UTF-8 should fail")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler(t, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("headers = %v", rec.Header())
	}
}
