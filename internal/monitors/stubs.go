package monitors

import "context"

// Placeholders for checks that can be configured but are not yet written.

func (c *Checker) DiskSpace(ctx context.Context, taskID, runID uint) (Result, error) {
	return Result{}, ErrNotImplemented
}

func (c *Checker) HTTP(ctx context.Context, taskID, runID uint) (Result, error) {
	return Result{}, ErrNotImplemented
}

func (c *Checker) HTTPS(ctx context.Context, taskID, runID uint) (Result, error) {
	return Result{}, ErrNotImplemented
}

func (c *Checker) LoadAverage(ctx context.Context, taskID, runID uint) (Result, error) {
	return Result{}, ErrNotImplemented
}

func (c *Checker) TCP(ctx context.Context, taskID, runID uint) (Result, error) {
	return Result{}, ErrNotImplemented
}
