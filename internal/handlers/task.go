package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/project"
	"github.com/sahana/eden/internal/utils"
)

type TaskRequest struct {
	models.Task

	ActivityID *uint `json:"activity_id"`
}

type TaskResponse struct {
	models.Task

	StatusRepresent   string `json:"status_represent"`
	PriorityRepresent string `json:"priority_represent"`
}

type TimeResponse struct {
	models.Time

	Project string `json:"project"`
	Day     string `json:"day"`
}

func taskResponse(t models.Task) TaskResponse {
	return TaskResponse{
		Task:              t,
		StatusRepresent:   project.TaskStatusRepresent(&t.Status),
		PriorityRepresent: project.PriorityRepresent(&t.Priority),
	}
}

func (h *Handler) CreateProjectTask(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var body TaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	t := body.Task
	t.ID = 0
	t.TimeActual = 0

	if err := h.Projects.CreateTask(ctx.Request.Context(), &t, &p.ID, body.ActivityID); err != nil {
		h.fail(ctx, err, "failed to create task")
		return
	}

	h.created(ctx, project.ResourceTask, taskResponse(t))
}

func (h *Handler) ListProjectTasks(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var tasks []models.Task

	err := h.db(ctx).
		Joins("JOIN task_projects ON task_projects.task_id = tasks.id AND task_projects.deleted_at IS NULL").
		Where("task_projects.project_id = ?", p.ID).
		Order("tasks.priority, tasks.id").
		Find(&tasks).Error

	if err != nil {
		h.fail(ctx, err, "failed to list tasks")
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		response = append(response, taskResponse(t))
	}

	h.list(ctx, project.ResourceTask, response, len(response))
}

func (h *Handler) loadTask(ctx *gin.Context) (*models.Task, bool) {
	taskID, err := utils.GetID(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var t models.Task

	if err := h.db(ctx).First(&t, taskID).Error; err != nil {
		h.fail(ctx, err, "failed to retrieve task")
		return nil, false
	}

	return &t, true
}

func (h *Handler) GetTask(ctx *gin.Context) {
	t, ok := h.loadTask(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": taskResponse(*t)})
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	t, ok := h.loadTask(ctx)
	if !ok {
		return
	}

	taskID, timeActual, owner := t.ID, t.TimeActual, t.OwnedByOrganisation

	if err := ctx.ShouldBindJSON(t); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	t.ID = taskID
	t.TimeActual = timeActual
	t.OwnedByOrganisation = owner

	if err := h.Projects.UpdateTask(ctx.Request.Context(), t); err != nil {
		h.fail(ctx, err, "failed to update task")
		return
	}

	h.modified(ctx, project.ResourceTask, taskResponse(*t))
}

// LogTime records hours against the task; the person defaults to the
// current user.
func (h *Handler) LogTime(ctx *gin.Context) {
	t, ok := h.loadTask(ctx)
	if !ok {
		return
	}

	var entry models.Time

	if err := ctx.ShouldBindJSON(&entry); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	entry.ID = 0
	entry.TaskID = t.ID

	if entry.PersonID == nil {
		if userID, err := utils.GetCurrentUserID(ctx); err == nil {
			entry.PersonID = &userID
		}
	}

	if err := h.Projects.LogTime(ctx.Request.Context(), &entry); err != nil {
		h.fail(ctx, err, "failed to log time")
		return
	}

	h.created(ctx, project.ResourceTime, entry)
}

func (h *Handler) ListTime(ctx *gin.Context) {
	t, ok := h.loadTask(ctx)
	if !ok {
		return
	}

	tx := h.db(ctx)

	var entries []models.Time

	if err := tx.Where("task_id = ?", t.ID).Order("date DESC").Find(&entries).Error; err != nil {
		h.fail(ctx, err, "failed to list time")
		return
	}

	now := time.Now().UTC()
	response := make([]TimeResponse, 0, len(entries))
	for i := range entries {
		name, err := project.TimeProject(tx, &entries[i])
		if err != nil {
			h.fail(ctx, err, "failed to read time project")
			return
		}

		response = append(response, TimeResponse{
			Time:    entries[i],
			Project: name,
			Day:     project.TimeDay(&entries[i], now),
		})
	}

	h.list(ctx, project.ResourceTime, response, len(response))
}

func (h *Handler) DeleteTime(ctx *gin.Context) {
	entryID, err := utils.GetID(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Projects.DeleteTime(ctx.Request.Context(), entryID); err != nil {
		h.fail(ctx, err, "failed to delete time")
		return
	}

	h.deleted(ctx, project.ResourceTime)
}

func (h *Handler) AddComment(ctx *gin.Context) {
	t, ok := h.loadTask(ctx)
	if !ok {
		return
	}

	var comment models.Comment

	if err := ctx.ShouldBindJSON(&comment); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment.ID = 0
	comment.TaskID = t.ID
	comment.Body = strings.TrimSpace(comment.Body)

	if comment.Body == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": gin.H{"body": "body is required"}})
		return
	}

	if userID, err := utils.GetCurrentUserID(ctx); err == nil {
		comment.CreatedBy = &userID
	}

	err := h.db(ctx).Transaction(func(tx *gorm.DB) error {
		if comment.ParentID != nil {
			var parent models.Comment
			if err := tx.Where("task_id = ?", t.ID).First(&parent, *comment.ParentID).Error; err != nil {
				return err
			}
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		h.fail(ctx, err, "failed to add comment")
		return
	}

	h.created(ctx, project.ResourceComment, comment)
}

func (h *Handler) ListComments(ctx *gin.Context) {
	t, ok := h.loadTask(ctx)
	if !ok {
		return
	}

	var comments []models.Comment

	if err := h.db(ctx).Where("task_id = ?", t.ID).Order("created_at").Find(&comments).Error; err != nil {
		h.fail(ctx, err, "failed to list comments")
		return
	}

	h.list(ctx, project.ResourceComment, comments, len(comments))
}
