package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/monitors"
	"github.com/sahana/eden/internal/testutil"
	"github.com/sahana/eden/internal/types"
)

func newTestQueue(t *testing.T, db *gorm.DB, now time.Time) *Queue {
	t.Helper()

	q := NewQueue(db, time.Second, nil, nil)
	q.now = func() time.Time { return now }
	return q
}

func TestQueueRunsTaskWhenDue(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(t, db, now)

	var got []interface{}
	q.Handle("notify", func(ctx context.Context, args []interface{}) error {
		got = args
		return nil
	})

	ctx := context.Background()
	require.NoError(t, q.ScheduleTask(ctx, monitors.ScheduleRequest{
		Function:  "notify",
		Args:      []interface{}{7, "x"},
		StartTime: now.Add(time.Hour),
		Timeout:   300 * time.Second,
		Repeats:   1,
	}))

	ran, err := q.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ran)

	q.now = func() time.Time { return now.Add(time.Hour + time.Minute) }

	ran, err = q.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.Equal(t, []interface{}{float64(7), "x"}, got)

	var task models.ScheduledTask
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, types.ScheduledCompleted, task.Status)
	assert.Equal(t, 300, task.Timeout)
	assert.NotNil(t, task.FinishedAt)

	ran, err = q.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ran)
}

func TestQueueFailures(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	q := newTestQueue(t, db, now)
	ctx := context.Background()

	q.Handle("explode", func(ctx context.Context, args []interface{}) error {
		return errors.New("smtp down")
	})
	q.Handle("panics", func(ctx context.Context, args []interface{}) error {
		panic("bad")
	})

	for _, fn := range []string{"explode", "panics", "missing"} {
		require.NoError(t, q.ScheduleTask(ctx, monitors.ScheduleRequest{Function: fn, StartTime: now.Add(-time.Minute)}))
	}

	ran, err := q.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, ran)

	var tasks []models.ScheduledTask
	require.NoError(t, db.Order("id").Find(&tasks).Error)
	require.Len(t, tasks, 3)

	for _, task := range tasks {
		assert.Equal(t, types.ScheduledFailed, task.Status, task.Function)
	}
	assert.Equal(t, "smtp down", tasks[0].LastError)
	assert.Equal(t, "panic: bad", tasks[1].LastError)
	assert.Contains(t, tasks[2].LastError, ErrNoHandler.Error())
}

func TestQueueRequeuesRepeats(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(t, db, now)
	ctx := context.Background()

	calls := 0
	q.Handle("tick", func(ctx context.Context, args []interface{}) error {
		calls++
		return nil
	})

	require.NoError(t, q.ScheduleTask(ctx, monitors.ScheduleRequest{Function: "tick", StartTime: now, Repeats: 2}))

	_, err := q.RunDue(ctx)
	require.NoError(t, err)

	var task models.ScheduledTask
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, types.ScheduledQueued, task.Status)
	assert.Equal(t, 1, task.Repeats)
	assert.True(t, task.StartTime.Equal(now.Add(60*time.Second)), task.StartTime)

	q.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = q.RunDue(ctx)
	require.NoError(t, err)

	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, types.ScheduledCompleted, task.Status)
	assert.Equal(t, 2, calls)
}

func TestQueueClaimIsExclusive(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	q := newTestQueue(t, db, now)
	ctx := context.Background()

	require.NoError(t, q.ScheduleTask(ctx, monitors.ScheduleRequest{Function: "x", StartTime: now}))

	var task models.ScheduledTask
	require.NoError(t, db.First(&task).Error)

	claimed, err := q.claim(ctx, &task)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = q.claim(ctx, &task)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestQueueReclaimsStaleClaims(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(t, db, now)
	ctx := context.Background()

	var ran []string
	q.Handle("notify", func(ctx context.Context, args []interface{}) error {
		ran = append(ran, args[0].(string))
		return nil
	})

	abandonedAt := now.Add(-10 * time.Minute)
	activeAt := now.Add(-90 * time.Second)
	abandoned := models.ScheduledTask{
		Function:  "notify",
		Args:      []byte(`["abandoned"]`),
		StartTime: now.Add(-time.Hour),
		Timeout:   60,
		Repeats:   1,
		Status:    types.ScheduledRunning,
		ClaimedAt: &abandonedAt,
	}
	active := models.ScheduledTask{
		Function:  "notify",
		Args:      []byte(`["active"]`),
		StartTime: now.Add(-time.Hour),
		Timeout:   300,
		Repeats:   1,
		Status:    types.ScheduledRunning,
		ClaimedAt: &activeAt,
	}
	require.NoError(t, db.Create(&abandoned).Error)
	require.NoError(t, db.Create(&active).Error)

	count, err := q.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"abandoned"}, ran)

	require.NoError(t, db.First(&abandoned, abandoned.ID).Error)
	assert.Equal(t, types.ScheduledCompleted, abandoned.Status)

	require.NoError(t, db.First(&active, active.ID).Error)
	assert.Equal(t, types.ScheduledRunning, active.Status)
}

func TestScheduleTaskRequiresFunction(t *testing.T) {
	q := newTestQueue(t, testutil.NewDB(t), time.Now())
	assert.Error(t, q.ScheduleTask(context.Background(), monitors.ScheduleRequest{}))
}

func TestEmailReplyHandlerGradesRun(t *testing.T) {
	db := testutil.NewDB(t)
	store := monitors.NewStore(db)
	checker := &monitors.Checker{Store: store}
	ctx := context.Background()

	task := models.MonitorTask{Function: "email_round_trip", Period: 3600, Enabled: true}
	require.NoError(t, db.Create(&task).Error)

	waiting, err := store.CreateRun(ctx, task.ID)
	require.NoError(t, err)
	replied, err := store.CreateRun(ctx, task.ID)
	require.NoError(t, err)
	_, err = store.MarkReplied(ctx, replied.ID)
	require.NoError(t, err)

	handler := EmailReplyHandler(checker)

	// arguments come back from JSON as float64
	require.NoError(t, handler(ctx, []interface{}{float64(waiting.ID)}))
	require.NoError(t, handler(ctx, []interface{}{float64(replied.ID)}))

	run, err := store.GetRun(ctx, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, "Critical: No Reply received", run.Result)

	run, err = store.GetRun(ctx, replied.ID)
	require.NoError(t, err)
	assert.Equal(t, "OK: Reply received", run.Result)

	assert.Error(t, handler(ctx, nil))
}
