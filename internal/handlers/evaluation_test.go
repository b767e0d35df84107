package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/services"
)

type stubEvaluationService struct {
	enabled    bool
	evalErr    error
	assignment *services.Assignment
	assignErr  error
}

func (s *stubEvaluationService) EvaluateFlag(_ context.Context, _ string, _ engine.Subject) (bool, error) {
	return s.enabled, s.evalErr
}

func (s *stubEvaluationService) AssignVariant(_ context.Context, _, _ string) (*services.Assignment, error) {
	return s.assignment, s.assignErr
}

func (s *stubEvaluationService) RecordConversion(_ context.Context, experimentKey, _ string) (*services.ConversionResult, error) {
	if s.assignErr != nil {
		return nil, s.assignErr
	}
	return &services.ConversionResult{ExperimentKey: experimentKey, VariantID: "v1", FirstConversion: true}, nil
}

func (s *stubEvaluationService) Warmup(_ context.Context) error { return nil }

func newEvalRouter(t *testing.T, svc services.EvaluationService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	handler := NewEvaluationHandler(log, svc)
	router := gin.New()
	router.GET("/api/evaluate", handler.Evaluate)
	router.GET("/api/assign", handler.Assign)
	router.POST("/api/convert", handler.Convert)
	return router
}

func TestEvaluateEndpoint_OK(t *testing.T) {
	router := newEvalRouter(t, &stubEvaluationService{enabled: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/evaluate?flagKey=dark-mode&subjectId=u1&role=staff", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		FlagKey string `json:"flagKey"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.FlagKey != "dark-mode" || !body.Enabled {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestEvaluateEndpoint_MissingParams(t *testing.T) {
	router := newEvalRouter(t, &stubEvaluationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/evaluate?flagKey=dark-mode", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
}

func TestEvaluateEndpoint_UnknownFlagIs404(t *testing.T) {
	router := newEvalRouter(t, &stubEvaluationService{
		evalErr: &engine.NotFoundError{Kind: "flag", Key: "ghost"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/evaluate?flagKey=ghost&subjectId=u1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
}

func TestAssignEndpoint_StateErrorIs409(t *testing.T) {
	router := newEvalRouter(t, &stubEvaluationService{
		assignErr: &engine.StateError{From: engine.StatusPaused, Op: "assign subjects to"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/assign?experimentKey=checkout&subjectId=u1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "invalid_state" {
		t.Fatalf("error code: got %q", envelope.Error.Code)
	}
}

func TestAssignEndpoint_OK(t *testing.T) {
	router := newEvalRouter(t, &stubEvaluationService{
		assignment: &services.Assignment{
			ExperimentKey: "checkout",
			VariantID:     "treatment",
			VariantName:   "Treatment",
			FirstExposure: true,
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/assign?experimentKey=checkout&subjectId=u1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var assignment services.Assignment
	if err := json.Unmarshal(w.Body.Bytes(), &assignment); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if assignment.VariantID != "treatment" || !assignment.FirstExposure {
		t.Fatalf("unexpected assignment: %+v", assignment)
	}
}

func TestConvertEndpoint_OK(t *testing.T) {
	router := newEvalRouter(t, &stubEvaluationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(`{"experimentKey":"checkout","subjectId":"u1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var result services.ConversionResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.FirstConversion {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestConvertEndpoint_EmptyBodyRejected(t *testing.T) {
	router := newEvalRouter(t, &stubEvaluationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
}
