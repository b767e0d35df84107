package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/services"
)

type EvaluationHandler struct {
	log         *logger.Logger
	evalService services.EvaluationService
}

func NewEvaluationHandler(log *logger.Logger, evalService services.EvaluationService) *EvaluationHandler {
	handlerLog := log.With("handler", "EvaluationHandler")
	return &EvaluationHandler{log: handlerLog, evalService: evalService}
}

// Evaluate answers GET /api/evaluate?flagKey=...&subjectId=...&role=...
func (eh *EvaluationHandler) Evaluate(c *gin.Context) {
	flagKey := strings.TrimSpace(c.Query("flagKey"))
	subjectID := strings.TrimSpace(c.Query("subjectId"))
	if flagKey == "" || subjectID == "" {
		RespondError(c, http.StatusBadRequest, "missing_params", fmt.Errorf("flagKey and subjectId are required"))
		return
	}
	subject := engine.Subject{ID: subjectID, Role: strings.TrimSpace(c.Query("role"))}
	enabled, err := eh.evalService.EvaluateFlag(c.Request.Context(), flagKey, subject)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"flagKey": flagKey, "enabled": enabled})
}

// Assign answers GET /api/assign?experimentKey=...&subjectId=...
func (eh *EvaluationHandler) Assign(c *gin.Context) {
	experimentKey := strings.TrimSpace(c.Query("experimentKey"))
	subjectID := strings.TrimSpace(c.Query("subjectId"))
	if experimentKey == "" || subjectID == "" {
		RespondError(c, http.StatusBadRequest, "missing_params", fmt.Errorf("experimentKey and subjectId are required"))
		return
	}
	assignment, err := eh.evalService.AssignVariant(c.Request.Context(), experimentKey, subjectID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, assignment)
}

// Convert answers POST /api/convert.
func (eh *EvaluationHandler) Convert(c *gin.Context) {
	var body struct {
		ExperimentKey string `json:"experimentKey"`
		SubjectID     string `json:"subjectId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	body.ExperimentKey = strings.TrimSpace(body.ExperimentKey)
	body.SubjectID = strings.TrimSpace(body.SubjectID)
	if body.ExperimentKey == "" || body.SubjectID == "" {
		RespondError(c, http.StatusBadRequest, "missing_params", fmt.Errorf("experimentKey and subjectId are required"))
		return
	}
	result, err := eh.evalService.RecordConversion(c.Request.Context(), body.ExperimentKey, body.SubjectID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, result)
}
