package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/metrics"
	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/monitors"
	"github.com/sahana/eden/internal/types"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultTaskTimeout  = 60 * time.Second
	claimBatchSize      = 50
	// staleClaimGrace is added to a task's timeout before its claim is
	// considered abandoned.
	staleClaimGrace = time.Minute
)

// HandlerFunc runs one scheduled task with the arguments it was queued with.
type HandlerFunc func(ctx context.Context, args []interface{}) error

var ErrNoHandler = errors.New("no handler registered")

// Queue persists delayed tasks and runs them once their start time has
// passed. Several processes may poll the same table; a task is only run by
// the process whose claim succeeds.
type Queue struct {
	db           *gorm.DB
	logger       *zap.Logger
	metrics      *metrics.Metrics
	pollInterval time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	wg sync.WaitGroup
}

func NewQueue(db *gorm.DB, pollInterval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Queue {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Queue{
		db:           db,
		logger:       logger,
		metrics:      m,
		pollInterval: pollInterval,
		now:          time.Now,
		handlers:     make(map[string]HandlerFunc),
	}
}

// Handle registers fn for tasks queued under name.
func (q *Queue) Handle(name string, fn HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = fn
}

func (q *Queue) handler(name string) (HandlerFunc, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	fn, ok := q.handlers[name]
	return fn, ok
}

// ScheduleTask queues req. It satisfies monitors.TaskScheduler.
func (q *Queue) ScheduleTask(ctx context.Context, req monitors.ScheduleRequest) error {
	if req.Function == "" {
		return errors.New("scheduled task needs a function")
	}

	args, err := json.Marshal(req.Args)
	if err != nil {
		return fmt.Errorf("failed to encode arguments of %s: %w", req.Function, err)
	}

	repeats := req.Repeats
	if repeats <= 0 {
		repeats = 1
	}

	timeout := int(req.Timeout / time.Second)
	if timeout <= 0 {
		timeout = int(defaultTaskTimeout / time.Second)
	}

	task := models.ScheduledTask{
		Function:  req.Function,
		Args:      datatypes.JSON(args),
		StartTime: req.StartTime.UTC(),
		Timeout:   timeout,
		Repeats:   repeats,
		Status:    types.ScheduledQueued,
	}

	if err := q.db.WithContext(ctx).Create(&task).Error; err != nil {
		return fmt.Errorf("failed to queue %s: %w", req.Function, err)
	}

	q.logger.Debug("task queued",
		zap.Uint("scheduled_task_id", task.ID),
		zap.String("function", task.Function),
		zap.Time("start_time", task.StartTime),
	)

	return nil
}

// Start polls for due tasks until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)

	go func() {
		defer q.wg.Done()

		ticker := time.NewTicker(q.pollInterval)
		defer ticker.Stop()

		for {
			if _, err := q.RunDue(ctx); err != nil && ctx.Err() == nil {
				q.logger.Error("failed to run due tasks", zap.Error(err))
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Wait blocks until the poll loop has exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// RunDue claims and runs every queued task whose start time has passed and
// returns how many it ran.
func (q *Queue) RunDue(ctx context.Context) (int, error) {
	if _, err := q.reclaimStale(ctx); err != nil {
		return 0, err
	}

	var due []models.ScheduledTask

	err := q.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", types.ScheduledQueued, q.now().UTC()).
		Order("start_time").
		Limit(claimBatchSize).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	ran := 0
	for i := range due {
		if ctx.Err() != nil {
			return ran, ctx.Err()
		}

		claimed, err := q.claim(ctx, &due[i])
		if err != nil {
			return ran, err
		}
		if !claimed {
			continue
		}

		q.run(ctx, &due[i])
		ran++
	}

	return ran, nil
}

func (q *Queue) claim(ctx context.Context, task *models.ScheduledTask) (bool, error) {
	now := q.now().UTC()

	res := q.db.WithContext(ctx).Model(&models.ScheduledTask{}).
		Where("id = ? AND status = ?", task.ID, types.ScheduledQueued).
		Updates(map[string]interface{}{
			"status":     types.ScheduledRunning,
			"claimed_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim scheduled task %d: %w", task.ID, res.Error)
	}

	return res.RowsAffected == 1, nil
}

// reclaimStale puts running tasks whose claim has outlived their timeout
// back in the queue. Such claims are left behind by a process that stopped
// mid-run.
func (q *Queue) reclaimStale(ctx context.Context) (int, error) {
	now := q.now().UTC()

	var running []models.ScheduledTask
	err := q.db.WithContext(ctx).
		Where("status = ? AND claimed_at IS NOT NULL AND claimed_at < ?", types.ScheduledRunning, now.Add(-staleClaimGrace)).
		Limit(claimBatchSize).
		Find(&running).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find stale claims: %w", err)
	}

	reclaimed := 0
	for i := range running {
		task := &running[i]

		cutoff := now.Add(-taskTimeout(task) - staleClaimGrace)
		if task.ClaimedAt.After(cutoff) {
			continue
		}

		res := q.db.WithContext(ctx).Model(&models.ScheduledTask{}).
			Where("id = ? AND status = ? AND claimed_at < ?", task.ID, types.ScheduledRunning, cutoff).
			Updates(map[string]interface{}{
				"status":     types.ScheduledQueued,
				"claimed_at": nil,
				"last_error": "claim expired",
			})
		if res.Error != nil {
			return reclaimed, fmt.Errorf("failed to reclaim scheduled task %d: %w", task.ID, res.Error)
		}

		if res.RowsAffected == 1 {
			reclaimed++
			q.logger.Warn("stale claim requeued",
				zap.Uint("scheduled_task_id", task.ID),
				zap.String("function", task.Function),
				zap.Time("claimed_at", *task.ClaimedAt),
			)
		}
	}

	return reclaimed, nil
}

func taskTimeout(task *models.ScheduledTask) time.Duration {
	timeout := time.Duration(task.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	return timeout
}

func (q *Queue) run(ctx context.Context, task *models.ScheduledTask) {
	log := q.logger.With(
		zap.Uint("scheduled_task_id", task.ID),
		zap.String("function", task.Function),
	)

	err := q.execute(ctx, task)

	updates := map[string]interface{}{
		"finished_at": q.now().UTC(),
		"last_error":  "",
	}

	outcome := types.ScheduledCompleted
	switch {
	case err != nil:
		outcome = types.ScheduledFailed
		updates["status"] = types.ScheduledFailed
		updates["last_error"] = err.Error()
		log.Warn("scheduled task failed", zap.Error(err))
	case task.Repeats > 1:
		updates["status"] = types.ScheduledQueued
		updates["repeats"] = task.Repeats - 1
		updates["start_time"] = q.now().UTC().Add(time.Duration(task.Period) * time.Second)
		log.Debug("scheduled task requeued", zap.Int("repeats_left", task.Repeats-1))
	default:
		updates["status"] = types.ScheduledCompleted
		updates["repeats"] = 0
		log.Debug("scheduled task completed")
	}

	q.metrics.ObserveScheduledTask(task.Function, outcome)

	// the result is recorded even when ctx was cancelled mid-run
	err = q.db.WithContext(context.WithoutCancel(ctx)).Model(&models.ScheduledTask{}).
		Where("id = ?", task.ID).
		Updates(updates).Error
	if err != nil {
		log.Error("failed to record scheduled task outcome", zap.Error(err))
	}
}

func (q *Queue) execute(ctx context.Context, task *models.ScheduledTask) (err error) {
	fn, ok := q.handler(task.Function)
	if !ok {
		return fmt.Errorf("%w for %q", ErrNoHandler, task.Function)
	}

	var args []interface{}
	if len(task.Args) > 0 {
		if err := json.Unmarshal(task.Args, &args); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, taskTimeout(task))
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn(ctx, args)
}

// EmailReplyHandler runs the reply check queued by an email round-trip.
func EmailReplyHandler(checker *monitors.Checker) HandlerFunc {
	return func(ctx context.Context, args []interface{}) error {
		if len(args) != 1 {
			return fmt.Errorf("expected 1 argument (run id), got %d", len(args))
		}

		var runID uint
		if err := mapstructure.WeakDecode(args[0], &runID); err != nil {
			return fmt.Errorf("invalid run id %v: %w", args[0], err)
		}

		_, err := checker.CheckEmailReply(ctx, runID)
		return err
	}
}
