package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventra/internal/audit"
	"eventra/internal/auth"
	"eventra/internal/metrics"
	"eventra/internal/registration"
)

type enrollRequest struct {
	EventID string `json:"event_id" binding:"required"`
}

// Enroll registers the calling student for an event.
func (h *Handler) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.FromContext(c)

	reg, err := h.registrations.Enroll(c.Request.Context(), claims.Subject, req.EventID)
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrDuplicate):
			metrics.EnrollmentRejections.Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "already registered for this event"})
		case errors.Is(err, registration.ErrEventNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "event not found"})
		default:
			h.serverError(c, "enroll", err)
		}
		return
	}

	metrics.Enrollments.Inc()
	if err := audit.Publish(c.Request.Context(), h.queue, audit.Entry{
		ActorID:  claims.Subject,
		Action:   "registration.enroll",
		EntityID: reg.ID,
		Detail:   reg.ParticipantID,
	}); err != nil {
		h.log.Warnw("audit publish failed", "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registered", "registration": reg})
}

// MyRegistrations lists the calling student's registrations.
func (h *Handler) MyRegistrations(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	regs, err := h.registrations.ListForStudent(c.Request.Context(), claims.Subject)
	if err != nil {
		h.serverError(c, "list registrations", err)
		return
	}
	if regs == nil {
		regs = []registration.StudentRegistration{}
	}
	c.JSON(http.StatusOK, regs)
}

// ListRegistrations lists an event's registrations for coordinators/admins,
// optionally filtered by exact college name.
func (h *Handler) ListRegistrations(c *gin.Context) {
	eventID := c.Query("event_id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id required"})
		return
	}
	participants, err := h.registrations.ListForEvent(c.Request.Context(), eventID, c.Query("college"))
	if err != nil {
		if errors.Is(err, registration.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		h.serverError(c, "list registrations", err)
		return
	}
	if participants == nil {
		participants = []registration.Participant{}
	}
	c.JSON(http.StatusOK, participants)
}

// EventParticipants returns an event together with its participant roster.
func (h *Handler) EventParticipants(c *gin.Context) {
	eventID := c.Param("id")
	evt, err := h.catalog.Get(c.Request.Context(), eventID)
	if err != nil {
		h.notFoundOrServerError(c, "get event", err)
		return
	}
	participants, err := h.registrations.ListForEvent(c.Request.Context(), eventID, "")
	if err != nil {
		h.serverError(c, "list participants", err)
		return
	}
	if participants == nil {
		participants = []registration.Participant{}
	}
	total, err := h.registrations.CountForEvent(c.Request.Context(), eventID)
	if err != nil {
		h.serverError(c, "count registrations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":        evt,
		"total":        total,
		"participants": participants,
	})
}
