package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Alert reports a monitor task whose latest run changed to, or stayed in, a
// non-OK state, or recovered from one.
type Alert struct {
	ID         string    `json:"alert_id"`
	TaskID     uint      `json:"task_id"`
	RunID      uint      `json:"run_id"`
	Function   string    `json:"function"`
	Server     string    `json:"server,omitempty"`
	Status     string    `json:"status"`
	Severity   int       `json:"severity"`
	Message    string    `json:"message"`
	Recovered  bool      `json:"recovered"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAlert stamps a fresh id and time on an alert.
func NewAlert(taskID, runID uint, function string, severity int, status, message string) Alert {
	return Alert{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		RunID:      runID,
		Function:   function,
		Status:     status,
		Severity:   severity,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}

type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Notifiers fans an alert out to every notifier and joins their errors.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, notifier := range n {
		if err := notifier.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
