package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/platform/apierr"
)

func TestRespondFromError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", engine.NewValidationError("rolloutPercent", "must be between 0 and 100"), http.StatusBadRequest, "validation_error"},
		{"not found", &engine.NotFoundError{Kind: "flag", Key: "ghost"}, http.StatusNotFound, "not_found"},
		{"state", &engine.StateError{From: engine.StatusCompleted, Op: "start"}, http.StatusConflict, "invalid_state"},
		{"conflict", &engine.ConflictError{Kind: "experiment", Key: "dup"}, http.StatusConflict, "conflict"},
		{"api error passthrough", apierr.New(http.StatusTooManyRequests, "rate_limited", fmt.Errorf("slow down")), http.StatusTooManyRequests, "rate_limited"},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/boom", func(c *gin.Context) { RespondFromError(c, tc.err) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

			if w.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", w.Code, tc.wantStatus)
			}
			var envelope ErrorEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("code: got %q, want %q", envelope.Error.Code, tc.wantCode)
			}
			if envelope.Error.Message == "" {
				t.Fatalf("message should not be empty")
			}
		})
	}
}
