package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventra/internal/catalog"
)

type eventRequest struct {
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date" binding:"required"`
	Venue         string    `json:"venue"`
	Code          string    `json:"code"`
	MainEvent     string    `json:"main_event"`
	CoordinatorID string    `json:"coordinator_id"`
}

func (r eventRequest) toEvent() catalog.Event {
	evt := catalog.Event{
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Venue:       r.Venue,
		Code:        r.Code,
	}
	if r.MainEvent != "" {
		evt.MainEvent = &r.MainEvent
	}
	if r.CoordinatorID != "" {
		evt.CoordinatorID = &r.CoordinatorID
	}
	return evt
}

// CreateMainEvent creates a top-level event.
func (h *Handler) CreateMainEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	evt, err := h.catalog.CreateMainEvent(c.Request.Context(), req.toEvent())
	if err != nil {
		h.serverError(c, "create event", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "main event created", "event": evt})
}

// CreateSubEvent creates an event under a main event.
func (h *Handler) CreateSubEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MainEvent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "main_event required"})
		return
	}
	evt, err := h.catalog.CreateSubEvent(c.Request.Context(), req.toEvent())
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidCoordinator) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinator"})
			return
		}
		h.serverError(c, "create sub-event", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "sub-event created", "event": evt})
}

// ListEvents returns main events, or a main event's sub-events when the
// main_event query parameter is set.
func (h *Handler) ListEvents(c *gin.Context) {
	var (
		events []catalog.Event
		err    error
	)
	if main := c.Query("main_event"); main != "" {
		events, err = h.catalog.ListSub(c.Request.Context(), main)
	} else {
		events, err = h.catalog.ListMain(c.Request.Context())
	}
	if err != nil {
		h.serverError(c, "list events", err)
		return
	}
	if events == nil {
		events = []catalog.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// ListSubEvents returns the sub-events under a main event.
func (h *Handler) ListSubEvents(c *gin.Context) {
	events, err := h.catalog.ListSub(c.Request.Context(), c.Param("mainEvent"))
	if err != nil {
		h.serverError(c, "list sub-events", err)
		return
	}
	if events == nil {
		events = []catalog.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// GetEvent returns a single event.
func (h *Handler) GetEvent(c *gin.Context) {
	evt, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		h.serverError(c, "get event", err)
		return
	}
	c.JSON(http.StatusOK, evt)
}

type updateEventRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Date          *time.Time `json:"date"`
	Venue         *string    `json:"venue"`
	CoordinatorID *string    `json:"coordinator_id"`
}

func (r updateEventRequest) toUpdate() catalog.EventUpdate {
	return catalog.EventUpdate{
		Title:         r.Title,
		Description:   r.Description,
		Date:          r.Date,
		Venue:         r.Venue,
		CoordinatorID: r.CoordinatorID,
	}
}

// UpdateEvent applies the provided fields to an event; omitted fields are
// left untouched.
func (h *Handler) UpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	evt, err := h.catalog.Update(c.Request.Context(), c.Param("id"), req.toUpdate())
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		case errors.Is(err, catalog.ErrInvalidCoordinator):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinator"})
		default:
			h.serverError(c, "update event", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event updated", "event": evt})
}

// DeleteEvent removes an event; registrations and attendance cascade with it.
func (h *Handler) DeleteEvent(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		h.serverError(c, "delete event", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

type collegeRequest struct {
	Name  string `json:"name" binding:"required"`
	Slug  string `json:"slug"`
	Theme string `json:"theme"`
}

// CreateCollege creates a college.
func (h *Handler) CreateCollege(c *gin.Context) {
	var req collegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	col, err := h.catalog.CreateCollege(c.Request.Context(), catalog.College{
		Name:  req.Name,
		Slug:  req.Slug,
		Theme: req.Theme,
	})
	if err != nil {
		h.serverError(c, "create college", err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

// ListColleges returns all colleges.
func (h *Handler) ListColleges(c *gin.Context) {
	colleges, err := h.catalog.ListColleges(c.Request.Context())
	if err != nil {
		h.serverError(c, "list colleges", err)
		return
	}
	if colleges == nil {
		colleges = []catalog.College{}
	}
	c.JSON(http.StatusOK, colleges)
}

// UploadCollegeLogo uploads a logo image to Cloudinary and stores its URL.
func (h *Handler) UploadCollegeLogo(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}
	file, header, err := c.Request.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file required"})
		return
	}
	defer file.Close()

	result, err := h.cloud.Upload(file, header.Filename)
	if err != nil {
		h.log.Errorw("cloudinary upload failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	if err := h.catalog.SetCollegeLogo(c.Request.Context(), c.Param("id"), result.SecureURL); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "college not found"})
			return
		}
		h.serverError(c, "set college logo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logo_url": result.SecureURL})
}
