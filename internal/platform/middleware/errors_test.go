package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lumicare/lumi/internal/platform/apperr"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"not found", apperr.NotFound("medication not found"), http.StatusNotFound, "medication not found"},
		{"conflict", apperr.Conflict("phone already registered"), http.StatusConflict, "phone already registered"},
		{"validation", apperr.Validation("invalid status %q", "skipped"), http.StatusBadRequest, `invalid status "skipped"`},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
		{"echo error", echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests, "rate limit exceeded"},
		{"echo default message", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
	}

	handler := ErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			handler(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["detail"] != tt.wantDetail {
				t.Errorf("expected detail %q, got %q", tt.wantDetail, body["detail"])
			}
		})
	}
}
