package monitors

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
)

type recordedResult struct {
	taskID uint
	runID  uint
	result Result
}

type fakeStore struct {
	tasks      map[uint]*models.MonitorTask
	servers    map[uint]*models.Server
	production map[uint]string
	runs       map[uint]*models.MonitorRun

	mu       sync.Mutex
	recorded []recordedResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:      map[uint]*models.MonitorTask{},
		servers:    map[uint]*models.Server{},
		production: map[uint]string{},
		runs:       map[uint]*models.MonitorRun{},
	}
}

func (s *fakeStore) addTask(t *testing.T, id uint, function string, options map[string]interface{}) *models.MonitorTask {
	t.Helper()

	raw, err := json.Marshal(options)
	require.NoError(t, err)

	task := &models.MonitorTask{Function: function, Options: datatypes.JSON(raw)}
	task.ID = id
	s.tasks[id] = task
	return task
}

func (s *fakeStore) GetTask(ctx context.Context, id uint) (*models.MonitorTask, error) {
	if task, ok := s.tasks[id]; ok {
		return task, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) GetServer(ctx context.Context, id uint) (*models.Server, error) {
	if server, ok := s.servers[id]; ok {
		return server, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) ProductionURL(ctx context.Context, deploymentID uint) (string, error) {
	return s.production[deploymentID], nil
}

func (s *fakeStore) GetRun(ctx context.Context, id uint) (*models.MonitorRun, error) {
	if run, ok := s.runs[id]; ok {
		return run, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) RecordResult(ctx context.Context, taskID, runID uint, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, recordedResult{taskID: taskID, runID: runID, result: result})
	return nil
}

type fakeMailer struct {
	err      error
	sent     []Email
	attempts int
	deadline time.Time
}

func (m *fakeMailer) Send(ctx context.Context, email Email) error {
	m.attempts++
	m.deadline, _ = ctx.Deadline()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type fakeScheduler struct {
	err       error
	scheduled []ScheduleRequest
}

func (s *fakeScheduler) ScheduleTask(ctx context.Context, req ScheduleRequest) error {
	if s.err != nil {
		return s.err
	}
	s.scheduled = append(s.scheduled, req)
	return nil
}

type fakeRunner struct {
	output []byte
	err    error

	name string
	args []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return r.output, r.err
}

// steppedClock returns the given times in order, then keeps returning the
// last one.
func steppedClock(times ...time.Time) func() time.Time {
	var (
		mu sync.Mutex
		i  int
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func uintPtr(v uint) *uint { return &v }
