package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/services"
)

type FeatureFlagHandler struct {
	log         *logger.Logger
	flagService services.FeatureFlagService
}

func NewFeatureFlagHandler(log *logger.Logger, flagService services.FeatureFlagService) *FeatureFlagHandler {
	handlerLog := log.With("handler", "FeatureFlagHandler")
	return &FeatureFlagHandler{log: handlerLog, flagService: flagService}
}

func (fh *FeatureFlagHandler) Create(c *gin.Context) {
	var input services.FlagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	flag, err := fh.flagService.Create(c.Request.Context(), input)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondCreated(c, flag)
}

func (fh *FeatureFlagHandler) List(c *gin.Context) {
	flags, err := fh.flagService.List(c.Request.Context())
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"flags": flags})
}

func (fh *FeatureFlagHandler) Get(c *gin.Context) {
	flag, err := fh.flagService.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, flag)
}

func (fh *FeatureFlagHandler) Update(c *gin.Context) {
	var input services.FlagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	flag, err := fh.flagService.Update(c.Request.Context(), c.Param("key"), input)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, flag)
}

func (fh *FeatureFlagHandler) Enable(c *gin.Context) {
	flag, err := fh.flagService.SetEnabled(c.Request.Context(), c.Param("key"), true)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, flag)
}

func (fh *FeatureFlagHandler) Disable(c *gin.Context) {
	flag, err := fh.flagService.SetEnabled(c.Request.Context(), c.Param("key"), false)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, flag)
}

func (fh *FeatureFlagHandler) SetRollout(c *gin.Context) {
	var body struct {
		RolloutPercent int `json:"rolloutPercent"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	flag, err := fh.flagService.SetRollout(c.Request.Context(), c.Param("key"), body.RolloutPercent)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, flag)
}

func (fh *FeatureFlagHandler) Delete(c *gin.Context) {
	if err := fh.flagService.Delete(c.Request.Context(), c.Param("key")); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
