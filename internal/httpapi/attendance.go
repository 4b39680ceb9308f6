package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventra/internal/attendance"
	"eventra/internal/audit"
	"eventra/internal/auth"
	"eventra/internal/metrics"
)

type markRequest struct {
	RegistrationID string `json:"registration_id" binding:"required"`
	Status         string `json:"status" binding:"required"`
}

// MarkAttendance sets a registration's attendance status. Only the event's
// assigned coordinator or an admin may mark; the last write wins.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.FromContext(c)

	rec, err := h.attendance.Mark(c.Request.Context(), req.RegistrationID,
		attendance.Status(req.Status), attendance.Actor{ID: claims.Subject, Role: claims.Role})
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be Present or Absent"})
		case errors.Is(err, attendance.ErrRegistrationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "registration not found"})
		case errors.Is(err, attendance.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to mark this event"})
		default:
			h.serverError(c, "mark attendance", err)
		}
		return
	}

	metrics.AttendanceMarks.WithLabelValues(string(rec.Status)).Inc()
	if err := audit.Publish(c.Request.Context(), h.queue, audit.Entry{
		ActorID:  claims.Subject,
		Action:   "attendance.mark",
		EntityID: rec.RegistrationID,
		Detail:   string(rec.Status),
	}); err != nil {
		h.log.Warnw("audit publish failed", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "attendance marked", "attendance": rec})
}

// EventAttendance returns an event with its attendance summary and rows.
func (h *Handler) EventAttendance(c *gin.Context) {
	eventID := c.Param("id")
	evt, err := h.catalog.Get(c.Request.Context(), eventID)
	if err != nil {
		h.notFoundOrServerError(c, "get event", err)
		return
	}
	stats, rows, err := h.attendance.EventAttendance(c.Request.Context(), eventID)
	if err != nil {
		h.serverError(c, "event attendance", err)
		return
	}
	if rows == nil {
		rows = []attendance.Row{}
	}
	c.JSON(http.StatusOK, gin.H{
		"event":      evt,
		"summary":    stats,
		"attendance": rows,
	})
}

// AdminEventStats returns the per-event aggregate report.
func (h *Handler) AdminEventStats(c *gin.Context) {
	reports, err := h.attendance.AdminEventStats(c.Request.Context())
	if err != nil {
		h.serverError(c, "admin stats", err)
		return
	}
	if reports == nil {
		reports = []attendance.EventReport{}
	}
	c.JSON(http.StatusOK, reports)
}
