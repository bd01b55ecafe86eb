package monitors

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sahana/eden/internal/types"
)

// EmailReplyFunction is the scheduled task name of the follow-up that
// verifies a round-trip reply arrived.
const EmailReplyFunction = "setup_monitor_check_email_reply"

const emailReplyTimeout = 300 * time.Second

var (
	runIDMarker   = regexp.MustCompile(`:run_id:(\d+):`)
	replyToMarker = regexp.MustCompile(`:reply_to:([^:\s]+):`)
)

// EmailRoundTrip checks that a remote mailbox is being polled and parsed
// and can send replies. The message carries the run id and the reply_to
// address for the remote parser to echo back; a delayed follow-up then
// checks whether the reply came in.
func (c *Checker) EmailRoundTrip(ctx context.Context, taskID, runID uint) (Result, error) {
	opts := types.DefaultEmailOptions()

	if _, err := c.loadTask(ctx, taskID, &opts); err != nil {
		return criticalResult("Critical: %v", err), nil
	}

	if opts.To == "" {
		return criticalResult("Critical: No recipient address specified"), nil
	}

	replyTo := opts.ReplyTo
	if replyTo == "" {
		replyTo = c.MailSender
		if replyTo == "" {
			return criticalResult("Critical: No reply_to specified"), nil
		}
	}

	message := fmt.Sprintf("%s\n:run_id:%d:", opts.Message, runID)
	message = fmt.Sprintf("%s\n:reply_to:%s:", message, replyTo)

	if opts.Timeout <= 0 {
		opts.Timeout = types.DefaultEmailOptions().Timeout
	}

	sendCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.Timeout)*time.Second)
	err := c.Mailer.Send(sendCtx, Email{
		To:      opts.To,
		Subject: opts.Subject,
		Body:    message,
		ReplyTo: replyTo,
	})
	cancel()
	if err != nil {
		c.log().Warn("round-trip email not sent",
			zap.Uint("task_id", taskID),
			zap.Uint("run_id", runID),
			zap.Error(err),
		)
		return criticalResult("Critical: Unable to send Email\n\n%v", err), nil
	}

	// the follow-up must not become due before this run's interim result
	// is recorded
	wait := opts.Wait
	if wait <= 0 {
		wait = types.DefaultEmailOptions().Wait
	}

	err = c.Scheduler.ScheduleTask(ctx, ScheduleRequest{
		Function:  EmailReplyFunction,
		Args:      []interface{}{runID},
		StartTime: c.now().UTC().Add(time.Duration(wait) * time.Minute),
		Timeout:   emailReplyTimeout,
		Repeats:   1,
	})
	if err != nil {
		return criticalResult("Critical: Unable to schedule the reply check\n\n%v", err), nil
	}

	return okResult("OK so far: Waiting for Reply"), nil
}

// CheckEmailReply is the follow-up of EmailRoundTrip. It grades the original
// run by whether a reply was recorded against it and stores that result.
func (c *Checker) CheckEmailReply(ctx context.Context, runID uint) (Result, error) {
	run, err := c.Store.GetRun(ctx, runID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read run %d: %w", runID, err)
	}

	result := criticalResult("Critical: No Reply received")
	if run.RepliedAt != nil {
		result = okResult("OK: Reply received")
	}

	if err := c.Store.RecordResult(ctx, run.TaskID, run.ID, result); err != nil {
		return result, fmt.Errorf("failed to record reply result for run %d: %w", runID, err)
	}

	return result, nil
}

// ParseReply extracts the markers EmailRoundTrip embeds in its message from
// an echoed reply body.
func ParseReply(body string) (runID uint, replyTo string, ok bool) {
	m := runIDMarker.FindStringSubmatch(body)
	if m == nil {
		return 0, "", false
	}

	id, err := strconv.ParseUint(m[1], 10, 0)
	if err != nil {
		return 0, "", false
	}

	if r := replyToMarker.FindStringSubmatch(body); r != nil {
		replyTo = r[1]
	}

	return uint(id), replyTo, true
}
