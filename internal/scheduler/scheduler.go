package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/metrics"
	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/monitors"
	"github.com/sahana/eden/internal/services"
)

// RunStore is the persistence the scheduler needs around each check.
type RunStore interface {
	monitors.Store
	CreateRun(ctx context.Context, taskID uint) (*models.MonitorRun, error)
}

// Broadcaster pushes a refresh to clients watching topic.
type Broadcaster interface {
	BroadcastRefresh(topic string)
}

// RefreshTopic is the topic refreshed after every completed run.
const RefreshTopic = "monitor"

type Deps struct {
	Store RunStore
	// Registry defaults to the checker's registry.
	Registry    map[string]monitors.CheckFunc
	Queue       *Queue
	Notifier    services.Notifier
	Metrics     *metrics.Metrics
	Broadcaster Broadcaster
	Logger      *zap.Logger
}

// Scheduler runs every enabled monitor task on its period and owns the
// queue of delayed follow-ups.
type Scheduler struct {
	db   *gorm.DB
	deps Deps

	jobs map[uint]*TaskJob // task ID -> job
	mu   sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type TaskJob struct {
	task   models.MonitorTask
	ticker *time.Ticker
	cancel context.CancelFunc
}

func New(db *gorm.DB, checker *monitors.Checker, deps Deps) *Scheduler {
	if deps.Registry == nil {
		deps.Registry = checker.Registry()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		db:     db,
		deps:   deps,
		jobs:   make(map[uint]*TaskJob),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start schedules all enabled tasks and starts the queue's poll loop.
func (s *Scheduler) Start() error {
	var tasks []models.MonitorTask
	if err := s.db.Where("enabled = ? AND period > ?", true, 0).Find(&tasks).Error; err != nil {
		return err
	}

	for _, task := range tasks {
		s.AddTask(task)
	}

	if s.deps.Queue != nil {
		s.deps.Queue.Start(s.ctx)
	}

	s.deps.Logger.Info("scheduler started", zap.Int("tasks", len(tasks)))
	return nil
}

// Stop cancels every job and waits for in-flight checks to return.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	for _, job := range s.jobs {
		job.ticker.Stop()
		job.cancel()
	}
	s.jobs = make(map[uint]*TaskJob)
	s.mu.Unlock()

	s.wg.Wait()
	if s.deps.Queue != nil {
		s.deps.Queue.Wait()
	}

	s.deps.Metrics.SetActiveJobs(0)
	s.deps.Logger.Info("scheduler stopped")
}

// AddTask (re)schedules task. Disabled or manual-only tasks are removed.
func (s *Scheduler) AddTask(task models.MonitorTask) {
	if !task.Enabled || task.Period <= 0 {
		s.RemoveTask(task.ID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	if existing, exists := s.jobs[task.ID]; exists {
		existing.ticker.Stop()
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	job := &TaskJob{
		task:   task,
		ticker: time.NewTicker(time.Duration(task.Period) * time.Second),
		cancel: jobCancel,
	}
	s.jobs[task.ID] = job
	s.deps.Metrics.SetActiveJobs(len(s.jobs))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(jobCtx, task.ID)
		s.runTask(jobCtx, job)
	}()

	s.deps.Logger.Debug("task scheduled",
		zap.Uint("task_id", task.ID),
		zap.String("function", task.Function),
		zap.Int("period", task.Period),
	)
}

func (s *Scheduler) UpdateTask(task models.MonitorTask) {
	s.AddTask(task)
}

func (s *Scheduler) RemoveTask(taskID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.jobs[taskID]; exists {
		job.ticker.Stop()
		job.cancel()
		delete(s.jobs, taskID)
		s.deps.Metrics.SetActiveJobs(len(s.jobs))
	}
}

// Scheduled reports whether a recurring job exists for the task.
func (s *Scheduler) Scheduled(taskID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[taskID]
	return ok
}

func (s *Scheduler) runTask(ctx context.Context, job *TaskJob) {
	defer job.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-job.ticker.C:
			s.execute(ctx, job.task.ID)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, taskID uint) {
	if _, _, err := s.RunTask(ctx, taskID); err != nil && ctx.Err() == nil {
		s.deps.Logger.Error("monitor run failed", zap.Uint("task_id", taskID), zap.Error(err))
	}
}

// RunTask runs the task's check once, now, and records the outcome. Check
// problems become Critical results; the error is only for failures to read
// or store the run.
func (s *Scheduler) RunTask(ctx context.Context, taskID uint) (*models.MonitorRun, monitors.Result, error) {
	store := s.deps.Store

	task, err := store.GetTask(ctx, taskID)
	if err != nil {
		return nil, monitors.Result{}, fmt.Errorf("failed to read task %d: %w", taskID, err)
	}

	run, err := store.CreateRun(ctx, task.ID)
	if err != nil {
		return nil, monitors.Result{}, fmt.Errorf("failed to create run for task %d: %w", taskID, err)
	}

	start := time.Now()
	result := s.check(ctx, task, run.ID)
	elapsed := time.Since(start)

	// the run is closed out even when the check was cut short by ctx
	recordCtx := context.WithoutCancel(ctx)
	if err := store.RecordResult(recordCtx, task.ID, run.ID, result); err != nil {
		return run, result, fmt.Errorf("failed to record run %d: %w", run.ID, err)
	}

	run.Status = int(result.Status)
	run.Result = result.Message

	s.deps.Metrics.ObserveCheck(task.Function, result.Status.String(), elapsed)
	s.alert(recordCtx, task, run.ID, result)

	if s.deps.Broadcaster != nil {
		s.deps.Broadcaster.BroadcastRefresh(RefreshTopic)
	}

	s.deps.Logger.Info("monitor run finished",
		zap.Uint("task_id", task.ID),
		zap.Uint("run_id", run.ID),
		zap.String("function", task.Function),
		zap.Stringer("status", result.Status),
		zap.Duration("elapsed", elapsed),
	)

	return run, result, nil
}

func (s *Scheduler) check(ctx context.Context, task *models.MonitorTask, runID uint) monitors.Result {
	fn, ok := s.deps.Registry[task.Function]
	if !ok {
		return monitors.Result{
			Message: fmt.Sprintf("Critical: Unknown check function %q", task.Function),
			Status:  monitors.StatusCritical,
		}
	}

	result, err := fn(ctx, task.ID, runID)
	switch {
	case errors.Is(err, monitors.ErrNotImplemented):
		return monitors.Result{
			Message: fmt.Sprintf("Critical: Check %s is not implemented", task.Function),
			Status:  monitors.StatusCritical,
		}
	case err != nil:
		return monitors.Result{Message: fmt.Sprintf("Critical: %v", err), Status: monitors.StatusCritical}
	case !result.Status.Valid():
		return monitors.Result{
			Message: fmt.Sprintf("Critical: Check returned invalid status %d", result.Status),
			Status:  monitors.StatusCritical,
		}
	}

	return result
}

// alert notifies on every non-OK result and on the first OK after one.
func (s *Scheduler) alert(ctx context.Context, task *models.MonitorTask, runID uint, result monitors.Result) {
	if s.deps.Notifier == nil {
		return
	}

	previous := monitors.Status(task.Status)
	recovered := result.Status == monitors.StatusOK && (previous == monitors.StatusWarning || previous == monitors.StatusCritical)
	if result.Status == monitors.StatusOK && !recovered {
		return
	}

	alert := services.NewAlert(task.ID, runID, task.Function, int(result.Status), result.Status.String(), result.Message)
	alert.Recovered = recovered

	if task.ServerID != nil {
		if server, err := s.deps.Store.GetServer(ctx, *task.ServerID); err == nil {
			alert.Server = server.Name
		}
	}

	if err := s.deps.Notifier.Notify(ctx, alert); err != nil {
		s.deps.Logger.Warn("failed to send alert",
			zap.String("alert_id", alert.ID),
			zap.Uint("task_id", task.ID),
			zap.Error(err),
		)
	}
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"active_tasks": len(s.jobs),
		"running":      s.ctx.Err() == nil,
	}
}
