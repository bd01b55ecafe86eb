package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/auth"
	"github.com/sahana/eden/internal/config"
	"github.com/sahana/eden/internal/importer"
	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/monitors"
	"github.com/sahana/eden/internal/project"
)

// MonitorScheduler keeps the recurring monitor jobs in line with the stored
// tasks and runs checks on demand.
type MonitorScheduler interface {
	AddTask(task models.MonitorTask)
	UpdateTask(task models.MonitorTask)
	RemoveTask(taskID uint)
	RunTask(ctx context.Context, taskID uint) (*models.MonitorRun, monitors.Result, error)
	GetStatus() map[string]interface{}
}

// Handler carries the dependencies of the HTTP handlers.
type Handler struct {
	DB        *gorm.DB
	Projects  *project.Service
	Importer  *importer.Importer
	Scheduler MonitorScheduler
	Checks    map[string]monitors.CheckFunc
	Replies   *monitors.GormStore
	Tokens    *auth.Tokens
	Settings  config.Project
	// CookieDomain scopes the session cookie.
	CookieDomain string
	Logger       *zap.Logger
}

func (h *Handler) log() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) db(ctx *gin.Context) *gorm.DB {
	return h.DB.WithContext(ctx.Request.Context())
}

func (h *Handler) crud(resource string) project.CRUDStrings {
	s, _ := project.Strings(resource, h.Settings.CommunityActivity)
	return s
}

func (h *Handler) created(ctx *gin.Context, resource string, record interface{}) {
	ctx.JSON(http.StatusCreated, gin.H{
		"message": h.crud(resource).MsgRecordCreated,
		"data":    record,
	})
}

func (h *Handler) modified(ctx *gin.Context, resource string, record interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"message": h.crud(resource).MsgRecordModified,
		"data":    record,
	})
}

func (h *Handler) deleted(ctx *gin.Context, resource string) {
	ctx.JSON(http.StatusOK, gin.H{"message": h.crud(resource).MsgRecordDeleted})
}

// list responds with the records, adding the resource's empty-list message
// when there are none.
func (h *Handler) list(ctx *gin.Context, resource string, records interface{}, n int) {
	body := gin.H{"data": records}
	if n == 0 {
		body["message"] = h.crud(resource).MsgListEmpty
	}
	ctx.JSON(http.StatusOK, body)
}

// fail maps err to a response: validation failures are 400 with the field
// errors, missing records 404, anything else 500.
func (h *Handler) fail(ctx *gin.Context, err error, action string) {
	var formErrs project.FormErrors

	switch {
	case errors.As(err, &formErrs):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": formErrs.Messages()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, importer.ErrInvalidRecord):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log().Error(action, zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
