package monitors

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/sahana/eden/internal/models"
)

// CheckFunc runs one check of a task. taskID selects the configuration and
// runID identifies this execution for asynchronous follow-up.
type CheckFunc func(ctx context.Context, taskID, runID uint) (Result, error)

// Store gives checks read access to their configuration and lets
// asynchronous follow-ups record results.
type Store interface {
	GetTask(ctx context.Context, id uint) (*models.MonitorTask, error)
	GetServer(ctx context.Context, id uint) (*models.Server, error)
	// ProductionURL returns the URL of the deployment's production instance,
	// or "" when it has none.
	ProductionURL(ctx context.Context, deploymentID uint) (string, error)
	GetRun(ctx context.Context, id uint) (*models.MonitorRun, error)
	RecordResult(ctx context.Context, taskID, runID uint, result Result) error
}

// ScheduleRequest describes a delayed task for the external task queue.
type ScheduleRequest struct {
	Function  string
	Args      []interface{}
	StartTime time.Time
	Timeout   time.Duration
	Repeats   int
}

type TaskScheduler interface {
	ScheduleTask(ctx context.Context, req ScheduleRequest) error
}

type Email struct {
	To      string
	Subject string
	Body    string
	ReplyTo string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// CommandRunner runs a platform utility and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Checker holds everything the checks depend on.
type Checker struct {
	Store     Store
	Scheduler TaskScheduler
	Mailer    Mailer
	Commands  CommandRunner
	// MailSender is the outbound address used when a task has no reply_to.
	MailSender string
	// Transport is used for outgoing HTTP requests; nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
	// Resolver is used by the dns check; nil means net.DefaultResolver.
	Resolver *net.Resolver
	Logger   *zap.Logger
	Now      func() time.Time
}

// Registry maps check function names to their implementation.
func (c *Checker) Registry() map[string]CheckFunc {
	return map[string]CheckFunc{
		"diskspace":        c.DiskSpace,
		"eden":             c.Eden,
		"email_round_trip": c.EmailRoundTrip,
		"http":             c.HTTP,
		"https":            c.HTTPS,
		"load_average":     c.LoadAverage,
		"ping":             c.Ping,
		"tcp":              c.TCP,
		"dns":              c.DNS,
		"database":         c.Database,
	}
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Checker) log() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// loadTask reads the task and decodes its options over the defaults
// already present in out.
func (c *Checker) loadTask(ctx context.Context, taskID uint, out interface{}) (*models.MonitorTask, error) {
	task, err := c.Store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to read task %d: %w", taskID, err)
	}

	if err := decodeOptions(task.Options, out); err != nil {
		return nil, fmt.Errorf("invalid options for task %d: %w", taskID, err)
	}

	return task, nil
}

func decodeOptions(raw datatypes.JSON, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}

	var options map[string]interface{}
	if err := json.Unmarshal(raw, &options); err != nil {
		return err
	}

	// null options decode to a nil map
	if options == nil {
		return nil
	}

	return mapstructure.WeakDecode(options, out)
}
