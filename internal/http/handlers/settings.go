package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transit-complaints/backend/internal/models"
	"github.com/transit-complaints/backend/internal/settings"
)

// @Summary Read a setting
// @Description Known flags that were never written report their default
// @Tags settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} models.Setting
// @Failure 404 {object} map[string]any
// @Router /api/settings/{key} [get]
func (h *Handler) SettingGet(c *gin.Context) {
	key := c.Param("key")
	s, found, err := h.Settings.Lookup(c.Request.Context(), key)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to read setting", err.Error())
		return
	}
	if !found {
		def, known := settings.Defaults[key]
		if !known {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Setting not found", nil)
			return
		}
		raw, _ := json.Marshal(def)
		s = models.Setting{Key: key, Value: raw}
	}
	c.JSON(http.StatusOK, s)
}

type SettingRequest struct {
	Value *bool `json:"value" validate:"required"`
}

// @Summary Toggle a setting
// @Tags settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param body body SettingRequest true "New value"
// @Param X-Actor header string false "Who made the change"
// @Success 200 {object} models.Setting
// @Failure 400 {object} map[string]any
// @Router /api/settings/{key} [put]
func (h *Handler) SettingPut(c *gin.Context) {
	key := c.Param("key")
	var req SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "value is required", err.Error())
		return
	}
	if err := h.Settings.SetFlag(c.Request.Context(), key, *req.Value, actor(c)); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update setting", err.Error())
		return
	}
	s, _, err := h.Settings.Lookup(c.Request.Context(), key)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to read setting", err.Error())
		return
	}
	c.JSON(http.StatusOK, s)
}
