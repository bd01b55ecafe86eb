package monitors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahana/eden/internal/models"
)

// publicURLServer serves its own base URL at the eden public_url page.
func publicURLServer(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eden/default/public_url" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, srv.URL)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestEdenLatencyThreshold(t *testing.T) {
	srv := publicURLServer(t)
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		latency time.Duration
		want    Result
	}{
		{"under threshold", 1999 * time.Millisecond, Result{"OK. Latency: 1999", StatusOK}},
		{"at threshold", 2000 * time.Millisecond, Result{"OK. Latency: 2000", StatusOK}},
		{"over threshold", 2001 * time.Millisecond, Result{"Warning: Latency of 2001 exceeded threshold of 2000.", StatusWarning}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addTask(t, 1, "eden", map[string]interface{}{"public_url": srv.URL})

			c := &Checker{Store: store, Now: steppedClock(t0, t0.Add(tt.latency))}

			result, err := c.Eden(context.Background(), 1, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestEdenCustomLatencyMax(t *testing.T) {
	srv := publicURLServer(t)
	t0 := time.Now()

	store := newFakeStore()
	store.addTask(t, 1, "eden", map[string]interface{}{"public_url": srv.URL, "latency_max": "500"})

	c := &Checker{Store: store, Now: steppedClock(t0, t0.Add(750*time.Millisecond))}

	result, err := c.Eden(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, result.Status)
	assert.Equal(t, "Warning: Latency of 750 exceeded threshold of 500.", result.Message)
}

func TestEdenHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.addTask(t, 1, "eden", map[string]interface{}{"public_url": srv.URL})

	result, err := (&Checker{Store: store}).Eden(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Result{"Critical: HTTP Error. Status = 500", StatusCritical}, result)
}

func TestEdenBodyMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "https://elsewhere.example.org")
	}))
	defer srv.Close()

	store := newFakeStore()
	store.addTask(t, 1, "eden", map[string]interface{}{"public_url": srv.URL})

	result, err := (&Checker{Store: store}).Eden(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusCritical, result.Status)
	assert.Equal(t,
		fmt.Sprintf("Critical: Page returned 'https://elsewhere.example.org' instead of  '%s'", srv.URL),
		result.Message)
}

func TestEdenRequestErrors(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tlsSrv := httptest.NewTLSServer(http.NotFoundHandler())
	defer tlsSrv.Close()

	loop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	defer loop.Close()

	tests := []struct {
		name   string
		url    string
		prefix string
	}{
		{"connection refused", closedURL, "Critical: Connection Error"},
		{"untrusted certificate", tlsSrv.URL, "Critical: SSL Error"},
		{"redirect loop", loop.URL, "Critical: TooManyRedirects Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addTask(t, 1, "eden", map[string]interface{}{"public_url": tt.url})

			result, err := (&Checker{Store: store}).Eden(context.Background(), 1, 1)
			require.NoError(t, err)
			assert.Equal(t, StatusCritical, result.Status)
			assert.True(t, strings.HasPrefix(result.Message, tt.prefix), result.Message)
		})
	}
}

func TestEdenTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	store := newFakeStore()
	store.addTask(t, 1, "eden", map[string]interface{}{"public_url": srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := (&Checker{Store: store}).Eden(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusCritical, result.Status)
	assert.True(t, strings.HasPrefix(result.Message, "Critical: Timeout Error"), result.Message)
}

func TestEdenUnknownTask(t *testing.T) {
	result, err := (&Checker{Store: newFakeStore()}).Eden(context.Background(), 99, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusCritical, result.Status)
}

func TestPublicURLFallbacks(t *testing.T) {
	store := newFakeStore()
	store.production[5] = "https://demo.example.org/"
	store.servers[3] = &models.Server{Name: "eden.example.org"}

	c := &Checker{Store: store}
	ctx := context.Background()

	url, err := c.publicURL(ctx, &models.MonitorTask{}, "https://explicit.example.org/")
	require.NoError(t, err)
	assert.Equal(t, "https://explicit.example.org", url)

	url, err = c.publicURL(ctx, &models.MonitorTask{DeploymentID: uintPtr(5), ServerID: uintPtr(3)}, "")
	require.NoError(t, err)
	assert.Equal(t, "https://demo.example.org", url)

	url, err = c.publicURL(ctx, &models.MonitorTask{DeploymentID: uintPtr(6), ServerID: uintPtr(3)}, "")
	require.NoError(t, err)
	assert.Equal(t, "https://eden.example.org", url)

	_, err = c.publicURL(ctx, &models.MonitorTask{}, "")
	assert.Error(t, err)
}
