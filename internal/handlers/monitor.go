package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/monitors"
	"github.com/sahana/eden/internal/utils"
)

const defaultRunsLimit = 50

type CreateDeploymentRequest struct {
	Name      string `json:"name" binding:"required"`
	Instances []struct {
		Type int    `json:"type" binding:"required,min=1,max=4"`
		URL  string `json:"url" binding:"required,url"`
	} `json:"instances" binding:"dive"`
}

type CreateServerRequest struct {
	DeploymentID *uint  `json:"deployment_id"`
	Name         string `json:"name" binding:"required"`
	HostIP       string `json:"host_ip" binding:"omitempty,ip"`
}

type MonitorTaskRequest struct {
	ServerID     *uint                  `json:"server_id"`
	DeploymentID *uint                  `json:"deployment_id"`
	Function     string                 `json:"function" binding:"required"`
	Options      map[string]interface{} `json:"options"`
	Period       *int                   `json:"period" binding:"omitempty,min=0"` // seconds, 0 = manual only
	Enabled      *bool                  `json:"enabled"`
}

type RunResponse struct {
	Run    *models.MonitorRun `json:"run"`
	Status string             `json:"status"`
	Result string             `json:"result"`
}

type ReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *Handler) CreateDeployment(ctx *gin.Context) {
	var body CreateDeploymentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deployment := models.Deployment{Name: body.Name}
	for _, instance := range body.Instances {
		deployment.Instances = append(deployment.Instances, models.Instance{Type: instance.Type, URL: instance.URL})
	}

	if err := h.db(ctx).Create(&deployment).Error; err != nil {
		h.fail(ctx, err, "failed to create deployment")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"data": deployment})
}

func (h *Handler) ListDeployments(ctx *gin.Context) {
	var deployments []models.Deployment

	if err := h.db(ctx).Preload("Instances").Preload("Servers").Order("name").Find(&deployments).Error; err != nil {
		h.fail(ctx, err, "failed to list deployments")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": deployments})
}

func (h *Handler) CreateServer(ctx *gin.Context) {
	var body CreateServerRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	host, err := utils.ExtractHost(body.Name)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server := models.Server{
		DeploymentID: body.DeploymentID,
		Name:         host,
		HostIP:       body.HostIP,
	}

	if err := h.db(ctx).Create(&server).Error; err != nil {
		h.fail(ctx, err, "failed to create server")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"data": server})
}

func (h *Handler) ListServers(ctx *gin.Context) {
	var servers []models.Server

	if err := h.db(ctx).Order("name").Find(&servers).Error; err != nil {
		h.fail(ctx, err, "failed to list servers")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": servers})
}

func (h *Handler) CreateMonitorTask(ctx *gin.Context) {
	var body MonitorTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := models.MonitorTask{Period: 300, Enabled: true}

	if !h.applyTaskRequest(ctx, &task, body) {
		return
	}

	period, enabled := task.Period, task.Enabled

	err := h.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		// column defaults replace zero values on create
		task.Period, task.Enabled = period, enabled
		return tx.Model(&task).Select("period", "enabled").Updates(&task).Error
	})

	if err != nil {
		h.fail(ctx, err, "failed to create monitor task")
		return
	}

	h.Scheduler.AddTask(task)

	ctx.JSON(http.StatusCreated, gin.H{"data": task})
}

func (h *Handler) ListMonitorTasks(ctx *gin.Context) {
	var tasks []models.MonitorTask

	query := h.db(ctx).Order("id")
	if serverID := ctx.Query("server_id"); serverID != "" {
		query = query.Where("server_id = ?", serverID)
	}

	if err := query.Find(&tasks).Error; err != nil {
		h.fail(ctx, err, "failed to list monitor tasks")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (h *Handler) UpdateMonitorTask(ctx *gin.Context) {
	task, ok := h.loadMonitorTask(ctx)
	if !ok {
		return
	}

	var body MonitorTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.applyTaskRequest(ctx, task, body) {
		return
	}

	err := h.db(ctx).Model(task).Select("server_id", "deployment_id", "function", "options", "period", "enabled").Updates(task).Error

	if err != nil {
		h.fail(ctx, err, "failed to update monitor task")
		return
	}

	h.Scheduler.UpdateTask(*task)

	ctx.JSON(http.StatusOK, gin.H{"data": task})
}

func (h *Handler) DeleteMonitorTask(ctx *gin.Context) {
	task, ok := h.loadMonitorTask(ctx)
	if !ok {
		return
	}

	h.Scheduler.RemoveTask(task.ID)

	if err := h.db(ctx).Delete(task).Error; err != nil {
		h.fail(ctx, err, "failed to delete monitor task")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// RunMonitorTask runs the task's check now and returns the recorded run.
func (h *Handler) RunMonitorTask(ctx *gin.Context) {
	task, ok := h.loadMonitorTask(ctx)
	if !ok {
		return
	}

	run, result, err := h.Scheduler.RunTask(ctx.Request.Context(), task.ID)

	if err != nil {
		h.fail(ctx, err, "failed to run monitor task")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": RunResponse{
		Run:    run,
		Status: result.Status.String(),
		Result: result.Message,
	}})
}

func (h *Handler) ListMonitorRuns(ctx *gin.Context) {
	task, ok := h.loadMonitorTask(ctx)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultRunsLimit)))
	if err != nil || limit <= 0 {
		limit = defaultRunsLimit
	}

	var runs []models.MonitorRun

	if err := h.db(ctx).Where("task_id = ?", task.ID).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		h.fail(ctx, err, "failed to list monitor runs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": runs})
}

// ReceiveReply takes the body of an inbound email and, when it echoes the
// markers of a round-trip check, marks that run as replied.
func (h *Handler) ReceiveReply(ctx *gin.Context) {
	var body ReplyRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	runID, replyTo, ok := monitors.ParseReply(body.Body)

	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Message is not a monitoring reply"})
		return
	}

	found, err := h.Replies.MarkReplied(ctx.Request.Context(), runID)

	if err != nil {
		h.fail(ctx, err, "failed to record reply")
		return
	}

	if !found {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	h.log().Info("round-trip reply received", zap.Uint("run_id", runID), zap.String("reply_to", replyTo))

	ctx.JSON(http.StatusOK, gin.H{"run_id": runID})
}

func (h *Handler) loadMonitorTask(ctx *gin.Context) (*models.MonitorTask, bool) {
	taskID, err := utils.GetID(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var task models.MonitorTask

	if err := h.db(ctx).First(&task, taskID).Error; err != nil {
		h.fail(ctx, err, "failed to retrieve monitor task")
		return nil, false
	}

	return &task, true
}

// applyTaskRequest copies the request onto task after checking the function
// and its target exist. It writes the error response when they do not.
func (h *Handler) applyTaskRequest(ctx *gin.Context, task *models.MonitorTask, body MonitorTaskRequest) bool {
	if _, ok := h.Checks[body.Function]; !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown check function", "fields": gin.H{"function": body.Function}})
		return false
	}

	if body.ServerID != nil {
		var server models.Server
		if err := h.db(ctx).First(&server, *body.ServerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Server not found"})
			} else {
				h.fail(ctx, err, "failed to retrieve server")
			}
			return false
		}
	}

	options := body.Options
	if options == nil {
		options = map[string]interface{}{}
	}

	raw, err := json.Marshal(options)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid options format"})
		return false
	}

	task.ServerID = body.ServerID
	task.DeploymentID = body.DeploymentID
	task.Function = body.Function
	task.Options = datatypes.JSON(raw)
	if body.Period != nil {
		task.Period = *body.Period
	}
	if body.Enabled != nil {
		task.Enabled = *body.Enabled
	}
	return true
}
