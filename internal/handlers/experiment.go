package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/services"
)

type ExperimentHandler struct {
	log        *logger.Logger
	expService services.ExperimentService
}

func NewExperimentHandler(log *logger.Logger, expService services.ExperimentService) *ExperimentHandler {
	handlerLog := log.With("handler", "ExperimentHandler")
	return &ExperimentHandler{log: handlerLog, expService: expService}
}

func (eh *ExperimentHandler) Create(c *gin.Context) {
	var input services.ExperimentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	exp, err := eh.expService.Create(c.Request.Context(), input)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondCreated(c, exp)
}

func (eh *ExperimentHandler) List(c *gin.Context) {
	status := engine.Status(c.Query("status"))
	experiments, err := eh.expService.List(c.Request.Context(), status)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"experiments": experiments})
}

func (eh *ExperimentHandler) Get(c *gin.Context) {
	exp, err := eh.expService.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, exp)
}

func (eh *ExperimentHandler) Update(c *gin.Context) {
	var input services.ExperimentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	exp, err := eh.expService.Update(c.Request.Context(), c.Param("key"), input)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, exp)
}

func (eh *ExperimentHandler) Start(c *gin.Context) {
	exp, err := eh.expService.Start(c.Request.Context(), c.Param("key"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, exp)
}

func (eh *ExperimentHandler) Pause(c *gin.Context) {
	exp, err := eh.expService.Pause(c.Request.Context(), c.Param("key"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, exp)
}

func (eh *ExperimentHandler) Complete(c *gin.Context) {
	var body struct {
		WinningVariantID string `json:"winningVariantId"`
	}
	// Body is optional: completing without a winner abandons the experiment.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	exp, err := eh.expService.Complete(c.Request.Context(), c.Param("key"), body.WinningVariantID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, exp)
}

func (eh *ExperimentHandler) Metrics(c *gin.Context) {
	metrics, err := eh.expService.Metrics(c.Request.Context(), c.Param("key"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, metrics)
}
