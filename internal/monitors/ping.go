package monitors

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sahana/eden/internal/types"
)

// Ping checks that the task's server answers a single ICMP echo.
func (c *Checker) Ping(ctx context.Context, taskID, runID uint) (Result, error) {
	opts := types.DefaultPingOptions()

	task, err := c.loadTask(ctx, taskID, &opts)
	if err != nil {
		return criticalResult("Critical: %v", err), nil
	}

	if task.ServerID == nil {
		return criticalResult("Critical: Task has no server"), nil
	}

	server, err := c.Store.GetServer(ctx, *task.ServerID)
	if err != nil {
		return criticalResult("Critical: Unable to read server %d\n\n%v", *task.ServerID, err), nil
	}

	// a leading dash would be read by ping as a flag
	host := strings.TrimSpace(server.HostIP)
	if host == "" || strings.HasPrefix(host, "-") {
		return criticalResult("Critical: Invalid host address %q", server.HostIP), nil
	}

	if opts.Timeout <= 0 {
		opts.Timeout = types.DefaultPingOptions().Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(opts.Timeout)*time.Second)
	defer cancel()

	// -c is the count flag of the unix utilities; Windows ping takes -n and
	// will reject this invocation.
	output, err := c.Commands.Run(ctx, "ping", "-c", "1", host)
	if err != nil {
		c.log().Info("ping failed",
			zap.Uint("task_id", taskID),
			zap.Uint("run_id", runID),
			zap.String("host_ip", host),
			zap.Error(err),
		)
		return criticalResult("Critical: Ping failed\n\n%v\n%s", err, output), nil
	}

	return okResult("OK"), nil
}

// ExecRunner runs commands directly, without a shell.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return output, ctx.Err()
	}
	return output, err
}
