// Package httpapi exposes the service over gin. Handlers depend on small
// service interfaces so tests can stub them without a database.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventra/internal/attendance"
	"eventra/internal/auth"
	"eventra/internal/catalog"
	"eventra/internal/cloudinary"
	"eventra/internal/identity"
	"eventra/internal/queue"
	"eventra/internal/registration"
)

// IdentityService registers and authenticates users.
type IdentityService interface {
	Register(ctx context.Context, u identity.User, password string) (identity.User, error)
	Login(ctx context.Context, email, password string) (identity.User, error)
}

// CatalogService manages events and colleges.
type CatalogService interface {
	CreateMainEvent(ctx context.Context, evt catalog.Event) (catalog.Event, error)
	CreateSubEvent(ctx context.Context, evt catalog.Event) (catalog.Event, error)
	Get(ctx context.Context, id string) (catalog.Event, error)
	ListMain(ctx context.Context) ([]catalog.Event, error)
	ListSub(ctx context.Context, mainEvent string) ([]catalog.Event, error)
	Update(ctx context.Context, id string, upd catalog.EventUpdate) (catalog.Event, error)
	Delete(ctx context.Context, id string) error
	CreateCollege(ctx context.Context, c catalog.College) (catalog.College, error)
	ListColleges(ctx context.Context) ([]catalog.College, error)
	SetCollegeLogo(ctx context.Context, id, logoURL string) error
}

// RegistrationService admits enrollments and answers registration queries.
type RegistrationService interface {
	Enroll(ctx context.Context, studentID, eventID string) (registration.Registration, error)
	ListForStudent(ctx context.Context, studentID string) ([]registration.StudentRegistration, error)
	ListForEvent(ctx context.Context, eventID, college string) ([]registration.Participant, error)
	CountForEvent(ctx context.Context, eventID string) (int64, error)
}

// AttendanceService marks attendance and answers aggregate queries.
type AttendanceService interface {
	Mark(ctx context.Context, registrationID string, status attendance.Status, actor attendance.Actor) (attendance.Attendance, error)
	StatsForEvent(ctx context.Context, eventID string) (attendance.EventStats, error)
	EventAttendance(ctx context.Context, eventID string) (attendance.EventStats, []attendance.Row, error)
	AdminEventStats(ctx context.Context) ([]attendance.EventReport, error)
}

// TokenConfig carries what Login needs to issue JWTs.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	TTL        time.Duration
}

// Handler holds the wired services.
type Handler struct {
	identity      IdentityService
	catalog       CatalogService
	registrations RegistrationService
	attendance    AttendanceService
	queue         queue.Queue
	cloud         *cloudinary.Client // nil when Cloudinary not configured
	tokens        TokenConfig
	log           *zap.SugaredLogger
}

// New creates a handler.
func New(id IdentityService, cat CatalogService, reg RegistrationService, att AttendanceService,
	q queue.Queue, cloud *cloudinary.Client, tokens TokenConfig, log *zap.SugaredLogger) *Handler {
	return &Handler{
		identity:      id,
		catalog:       cat,
		registrations: reg,
		attendance:    att,
		queue:         q,
		cloud:         cloud,
		tokens:        tokens,
		log:           log,
	}
}

// Register mounts all routes under /api.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/auth/register", h.RegisterUser)
	api.POST("/auth/login", h.Login)

	api.GET("/events", h.ListEvents)
	api.GET("/events/main/:mainEvent", h.ListSubEvents)
	api.GET("/events/:id", h.GetEvent)
	api.GET("/colleges", h.ListColleges)

	authed := api.Group("", auth.Require(h.tokens.SigningKey, h.tokens.Issuer))

	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/events", h.CreateMainEvent)
	admin.POST("/events/sub-events", h.CreateSubEvent)
	admin.PUT("/events/:id", h.UpdateEvent)
	admin.DELETE("/events/:id", h.DeleteEvent)
	admin.POST("/colleges", h.CreateCollege)
	admin.POST("/colleges/:id/logo", h.UploadCollegeLogo)
	admin.GET("/admin/events/stats", h.AdminEventStats)

	student := authed.Group("", auth.RequireRole(auth.RoleStudent))
	student.POST("/registrations/enroll", h.Enroll)
	student.GET("/registrations/my", h.MyRegistrations)

	staff := authed.Group("", auth.RequireRole(auth.RoleCoordinator, auth.RoleAdmin))
	staff.GET("/registrations", h.ListRegistrations)
	staff.GET("/registrations/event/:id/participants", h.EventParticipants)
	staff.POST("/attendance/mark", h.MarkAttendance)
	staff.GET("/attendance/event/:id", h.EventAttendance)
}

// serverError logs the cause and returns a generic message, so storage faults
// never leak details to callers.
func (h *Handler) serverError(c *gin.Context, op string, err error) {
	h.log.Errorw(op+" failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
}

func (h *Handler) notFoundOrServerError(c *gin.Context, op string, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	h.serverError(c, op, err)
}
