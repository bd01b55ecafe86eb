package monitors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/types"
)

const (
	maxRedirects = 30
	maxBodyBytes = 1 << 20
)

var errTooManyRedirects = fmt.Errorf("exceeded %d redirects", maxRedirects)

// Eden checks that the deployment's public_url page can be retrieved, which
// covers DNS, the server being up, the firewall, the web server, the
// application server, the database and the application's connection to it.
func (c *Checker) Eden(ctx context.Context, taskID, runID uint) (Result, error) {
	opts := types.DefaultEdenOptions()

	task, err := c.loadTask(ctx, taskID, &opts)
	if err != nil {
		return criticalResult("Critical: %v", err), nil
	}

	if opts.Timeout <= 0 {
		opts.Timeout = types.DefaultEdenOptions().Timeout
	}

	publicURL, err := c.publicURL(ctx, task, opts.PublicURL)
	if err != nil {
		return criticalResult("Critical: Unable to determine the public URL\n\n%v", err), nil
	}

	url := fmt.Sprintf("%s/%s/default/public_url", publicURL, opts.AppName)

	c.log().Debug("checking public url",
		zap.Uint("task_id", taskID),
		zap.Uint("run_id", runID),
		zap.String("url", url),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return criticalResult("Critical: Request Error\n\n%v", err), nil
	}

	client := &http.Client{
		Timeout:       time.Duration(opts.Timeout) * time.Second,
		Transport:     c.Transport,
		CheckRedirect: limitRedirects,
	}

	start := c.now()
	resp, err := client.Do(req)
	if err != nil {
		return classifyRequestError(err), nil
	}
	latency := int(c.now().Sub(start).Milliseconds())

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return criticalResult("Critical: HTTP Error. Status = %d", resp.StatusCode), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return classifyRequestError(err), nil
	}

	if text := string(body); text != publicURL {
		return criticalResult("Critical: Page returned '%s' instead of  '%s'", text, publicURL), nil
	}

	return classifyLatency(latency, opts.LatencyMax), nil
}

// publicURL resolves the base URL of the instance under test: the explicit
// option, else the deployment's production instance, else the server name.
func (c *Checker) publicURL(ctx context.Context, task *models.MonitorTask, explicit string) (string, error) {
	if explicit != "" {
		return strings.TrimSuffix(explicit, "/"), nil
	}

	if task.DeploymentID != nil {
		url, err := c.Store.ProductionURL(ctx, *task.DeploymentID)
		if err != nil {
			return "", err
		}
		if url != "" {
			return strings.TrimSuffix(url, "/"), nil
		}
	}

	if task.ServerID == nil {
		return "", errors.New("task has no public_url, deployment instance or server")
	}

	server, err := c.Store.GetServer(ctx, *task.ServerID)
	if err != nil {
		return "", fmt.Errorf("failed to read server %d: %w", *task.ServerID, err)
	}

	return "https://" + server.Name, nil
}

// classifyLatency grades a successful response; a latency equal to the
// threshold is still OK.
func classifyLatency(latency, latencyMax int) Result {
	if latency > latencyMax {
		return warningResult("Warning: Latency of %d exceeded threshold of %d.", latency, latencyMax)
	}

	return okResult("OK. Latency: %d", latency)
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errTooManyRedirects
	}
	return nil
}

func classifyRequestError(err error) Result {
	kind := "Request"

	switch {
	case errors.Is(err, errTooManyRedirects):
		kind = "TooManyRedirects"
	case isTLSError(err):
		kind = "SSL"
	case isTimeout(err):
		kind = "Timeout"
	case isConnectionError(err):
		kind = "Connection"
	}

	return criticalResult("Critical: %s Error\n\n%v", kind, err)
}

func isTLSError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		alertErr     tls.AlertError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)

	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)

	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
