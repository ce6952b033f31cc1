package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/transit-complaints/backend/internal/models"
	"github.com/transit-complaints/backend/internal/service"
)

// @Summary Submit a complaint
// @Description Stores the complaint with medium priority and schedules AI prioritization
// @Tags complaints
// @Accept json
// @Produce json
// @Param complaint body service.CreateInput true "Complaint"
// @Success 201 {object} models.Complaint
// @Failure 400 {object} map[string]any
// @Router /api/complaints [post]
func (h *Handler) ComplaintCreate(c *gin.Context) {
	var req service.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	complaint, err := h.Complaints.Create(c.Request.Context(), req, strings.TrimSpace(c.GetHeader(ActorHeader)))
	if err != nil {
		h.respondError(c, err, "Complaint not found")
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

// @Summary List complaints
// @Tags complaints
// @Produce json
// @Param status query string false "open, in_progress, resolved, rejected"
// @Param priority query string false "high, medium, low"
// @Param category query string false "Category"
// @Param q query string false "Search in title and description"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]any
// @Router /api/complaints [get]
func (h *Handler) ComplaintsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	f := models.ComplaintFilter{
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Priority: strings.ToLower(strings.TrimSpace(c.Query("priority"))),
		Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
		Query:    strings.TrimSpace(c.Query("q")),
		Limit:    limit,
		Offset:   offset,
	}
	if f.Status != "" && !models.IsStatus(f.Status) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", f.Status)
		return
	}
	if f.Priority != "" && !models.IsPriority(f.Priority) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown priority", f.Priority)
		return
	}

	items, err := h.Complaints.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list complaints", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

// @Summary Complaint details
// @Tags complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} models.Complaint
// @Failure 404 {object} map[string]any
// @Router /api/complaints/{id} [get]
func (h *Handler) ComplaintDetails(c *gin.Context) {
	complaint, err := h.Complaints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Complaint not found")
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// @Summary Re-run AI prioritization
// @Tags complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} models.Complaint
// @Failure 404 {object} map[string]any
// @Router /api/complaints/{id}/prioritize [post]
func (h *Handler) ComplaintPrioritize(c *gin.Context) {
	complaint, err := h.Complaints.Reprioritize(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Complaint not found")
		return
	}
	c.JSON(http.StatusOK, complaint)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// @Summary Change complaint status
// @Tags complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param body body StatusRequest true "New status"
// @Success 200 {object} models.Complaint
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/complaints/{id}/status [patch]
func (h *Handler) ComplaintStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	complaint, err := h.Complaints.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actor(c))
	if err != nil {
		h.respondError(c, err, "Complaint not found")
		return
	}
	c.JSON(http.StatusOK, complaint)
}
