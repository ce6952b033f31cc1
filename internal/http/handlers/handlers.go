package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/transit-complaints/backend/internal/db"
	"github.com/transit-complaints/backend/internal/models"
	"github.com/transit-complaints/backend/internal/service"
)

const ActorHeader = "X-Actor"

type Pinger interface {
	Ping(ctx context.Context) error
}

type ComplaintService interface {
	Create(ctx context.Context, in service.CreateInput, submittedBy string) (models.Complaint, error)
	Reprioritize(ctx context.Context, id string) (models.Complaint, error)
	UpdateStatus(ctx context.Context, id, status, actor string) (models.Complaint, error)
	Get(ctx context.Context, id string) (models.Complaint, error)
	List(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error)
}

type SettingsGate interface {
	Lookup(ctx context.Context, name string) (models.Setting, bool, error)
	SetFlag(ctx context.Context, name string, value bool, actor string) error
}

type Handler struct {
	Store      Pinger
	Complaints ComplaintService
	Settings   SettingsGate
	Validator  *validator.Validate
	Logger     zerolog.Logger
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// respondError maps service and repository errors onto the error envelope.
func (h *Handler) respondError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", notFound, nil)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidStatus):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Internal error", err.Error())
	}
}

func actor(c *gin.Context) string {
	if a := strings.TrimSpace(c.GetHeader(ActorHeader)); a != "" {
		return a
	}
	return "admin"
}
