package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/auth"
	"github.com/sahana/eden/internal/config"
	"github.com/sahana/eden/internal/handlers"
	"github.com/sahana/eden/internal/importer"
	"github.com/sahana/eden/internal/metrics"
	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/monitors"
	"github.com/sahana/eden/internal/project"
	"github.com/sahana/eden/internal/testutil"
)

// fakeScheduler records job changes and runs checks as an immediate OK.
type fakeScheduler struct {
	store *monitors.GormStore

	mu      sync.Mutex
	added   []uint
	updated []uint
	removed []uint
}

func (f *fakeScheduler) AddTask(task models.MonitorTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, task.ID)
}

func (f *fakeScheduler) UpdateTask(task models.MonitorTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, task.ID)
}

func (f *fakeScheduler) RemoveTask(taskID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, taskID)
}

func (f *fakeScheduler) RunTask(ctx context.Context, taskID uint) (*models.MonitorRun, monitors.Result, error) {
	if _, err := f.store.GetTask(ctx, taskID); err != nil {
		return nil, monitors.Result{}, err
	}
	run, err := f.store.CreateRun(ctx, taskID)
	if err != nil {
		return nil, monitors.Result{}, err
	}
	result := monitors.Result{Message: "OK", Status: monitors.StatusOK}
	return run, result, f.store.RecordResult(ctx, taskID, run.ID, result)
}

func (f *fakeScheduler) GetStatus() map[string]interface{} {
	return map[string]interface{}{"active_tasks": len(f.added), "running": true}
}

type testAPI struct {
	t         *testing.T
	db        *gorm.DB
	engine    *gin.Engine
	scheduler *fakeScheduler
	token     string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	tokens, err := auth.NewTokens("test-secret")
	require.NoError(t, err)

	store := monitors.NewStore(db)
	sched := &fakeScheduler{store: store}
	checker := &monitors.Checker{}

	h := &handlers.Handler{
		DB:        db,
		Projects:  project.NewService(db, config.Project{}, nil),
		Importer:  importer.New(db, false, nil),
		Scheduler: sched,
		Checks:    checker.Registry(),
		Replies:   store,
		Tokens:    tokens,
		Logger:    zap.NewNop(),
	}

	engine := NewRouter(h, Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		Metrics:        metrics.New(),
		Hub:            handlers.NewHub(nil, zap.NewNop()),
	})

	return &testAPI{t: t, db: db, engine: engine, scheduler: sched}
}

func (a *testAPI) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (a *testAPI) login() {
	a.t.Helper()

	rec, _ := a.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Field Officer",
		"email":    "Officer@Example.org",
		"password": "correct horse",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code)

	header := rec.Header().Get("Authorization")
	require.True(a.t, strings.HasPrefix(header, "Bearer "))
	a.token = strings.TrimPrefix(header, "Bearer ")
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func id(t *testing.T, record map[string]interface{}) uint {
	t.Helper()
	v, ok := record["ID"].(float64)
	require.True(t, ok, "record has no ID: %v", record)
	return uint(v)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.login()

	rec, body := api.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "officer@example.org", user["email"])

	token := api.token
	api.token = ""
	rec, _ = api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "officer@example.org", "password": "wrong password"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "officer@example.org", "password": "correct horse"})
	assert.Equal(t, http.StatusOK, rec.Code)

	api.token = "garbage"
	rec, _ = api.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.token = token
}

func TestProjectLifecycle(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec, body := api.do(http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No Projects currently registered", body["message"])

	rec, body = api.do(http.MethodPost, "/api/projects", map[string]interface{}{"name": "Flood Relief", "budget": 2500})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Project added", body["message"])
	created := data(t, body)
	assert.Equal(t, "Flood Relief", created["code"])
	projectID := id(t, created)

	rec, body = api.do(http.MethodPatch, fmt.Sprintf("/api/projects/%d", projectID), map[string]interface{}{"objectives": "Dry homes"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Project updated", body["message"])
	assert.Equal(t, "Flood Relief", data(t, body)["name"])

	rec, body = api.do(http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dry homes", data(t, body)["objectives"])
	assert.Equal(t, "-", data(t, body)["hfa_represent"])

	rec, body = api.do(http.MethodPost, "/api/projects", map[string]interface{}{"name": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["fields"], "name")

	rec, _ = api.do(http.MethodGet, "/api/projects/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = api.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Project deleted", body["message"])
}

func TestLeadImplementerConflict(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	lead := models.Organisation{Name: "Lead Org"}
	other := models.Organisation{Name: "Other Org"}
	require.NoError(t, api.db.Create(&lead).Error)
	require.NoError(t, api.db.Create(&other).Error)

	_, body := api.do(http.MethodPost, "/api/projects", map[string]interface{}{"name": "Schools"})
	projectID := id(t, data(t, body))
	path := fmt.Sprintf("/api/projects/%d/organisations", projectID)

	rec, _ := api.do(http.MethodPost, path, map[string]interface{}{"organisation_id": lead.ID, "role": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body = api.do(http.MethodPost, path, map[string]interface{}{"organisation_id": other.ID, "role": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := body["fields"].(map[string]interface{})
	assert.Equal(t, project.ErrLeadRoleTaken.Error(), fields["role"])

	rec, body = api.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	links := body["data"].([]interface{})
	require.Len(t, links, 1)
	assert.Equal(t, "Lead Implementer", links[0].(map[string]interface{})["role_represent"])
}

func TestTasksAndTime(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	_, body := api.do(http.MethodPost, "/api/projects", map[string]interface{}{"name": "Roads"})
	projectID := id(t, data(t, body))

	rec, body := api.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/activities", projectID), map[string]interface{}{"name": "Survey"})
	require.Equal(t, http.StatusCreated, rec.Code)
	activityID := id(t, data(t, body))

	rec, body = api.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), map[string]interface{}{"name": "Measure", "activity_id": activityID})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := data(t, body)
	assert.Equal(t, "New", task["status_represent"])
	assert.Equal(t, "Normal", task["priority_represent"])
	taskID := id(t, task)

	rec, body = api.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", taskID), map[string]interface{}{"status": 3})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["fields"], "pe_id")

	rec, body = api.do(http.MethodPost, fmt.Sprintf("/api/tasks/%d/time", taskID), map[string]interface{}{"hours": 2.5})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := data(t, body)
	assert.NotNil(t, entry["person_id"])

	rec, body = api.do(http.MethodGet, fmt.Sprintf("/api/tasks/%d/time", taskID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "Roads", entries[0].(map[string]interface{})["project"])

	rec, body = api.do(http.MethodGet, fmt.Sprintf("/api/tasks/%d", taskID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.5, data(t, body)["time_actual"])

	rec, body = api.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/activities", projectID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activities := body["data"].([]interface{})
	require.Len(t, activities, 1)
	assert.Equal(t, 2.5, activities[0].(map[string]interface{})["time_actual"])
	assert.Equal(t, "Roads", activities[0].(map[string]interface{})["project_name"])

	rec, body = api.do(http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", taskID), map[string]interface{}{"body": "Started"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Comment added", body["message"])
}

func TestImportEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec, body := api.do(http.MethodPost, "/api/import/project", []map[string]interface{}{
		{"name": "Water"},
		{"name": "Sanitation"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results := body["data"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "create", results[0].(map[string]interface{})["method"])

	rec, body = api.do(http.MethodPost, "/api/import/project", []map[string]interface{}{{"name": "WATER"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "update", body["data"].([]interface{})[0].(map[string]interface{})["method"])

	rec, _ = api.do(http.MethodPost, "/api/import/task", []map[string]interface{}{{"name": "x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/import/project", map[string]interface{}{"name": "not a list"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonitorTasks(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec, body := api.do(http.MethodPost, "/api/monitor/servers", map[string]interface{}{"name": "https://Vita.Example.org/", "host_ip": "10.0.0.5"})
	require.Equal(t, http.StatusCreated, rec.Code)
	server := data(t, body)
	assert.Equal(t, "vita.example.org", server["name"])
	serverID := id(t, server)

	rec, _ = api.do(http.MethodPost, "/api/monitor/tasks", map[string]interface{}{"server_id": serverID, "function": "nonsense"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = api.do(http.MethodPost, "/api/monitor/tasks", map[string]interface{}{
		"server_id": serverID,
		"function":  "ping",
		"options":   map[string]interface{}{"timeout": 5},
		"period":    0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := data(t, body)
	taskID := id(t, task)
	assert.Equal(t, float64(0), task["period"])
	assert.Equal(t, []uint{taskID}, api.scheduler.added)

	var stored models.MonitorTask
	require.NoError(t, api.db.First(&stored, taskID).Error)
	assert.Equal(t, 0, stored.Period)
	assert.True(t, stored.Enabled)

	rec, _ = api.do(http.MethodPut, fmt.Sprintf("/api/monitor/tasks/%d", taskID), map[string]interface{}{"server_id": serverID, "function": "ping", "enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint{taskID}, api.scheduler.updated)

	rec, body = api.do(http.MethodPost, fmt.Sprintf("/api/monitor/tasks/%d/run", taskID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := data(t, body)
	assert.Equal(t, "ok", run["status"])
	runID := id(t, run["run"].(map[string]interface{}))

	rec, body = api.do(http.MethodGet, fmt.Sprintf("/api/monitor/tasks/%d/runs", taskID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, _ = api.do(http.MethodPost, "/api/monitor/replies", map[string]string{"body": "thanks\n:run_id:999999:"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/monitor/replies", map[string]string{"body": "no markers here"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/monitor/replies", map[string]string{"body": fmt.Sprintf("Re: check\n:run_id:%d:\n:reply_to:ops@example.org:", runID)})
	require.Equal(t, http.StatusOK, rec.Code)

	var stamped models.MonitorRun
	require.NoError(t, api.db.First(&stamped, runID).Error)
	assert.NotNil(t, stamped.RepliedAt)

	rec, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/monitor/tasks/%d", taskID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uint{taskID}, api.scheduler.removed)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = api.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eden_monitor_active_jobs")
}

func TestWebSocketReceivesRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	tokens, err := auth.NewTokens("test-secret")
	require.NoError(t, err)

	user := models.User{Name: "Ops", Email: "ops@example.org", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	token, err := tokens.Generate(user.ID, user.Email)
	require.NoError(t, err)

	hub := handlers.NewHub(nil, zap.NewNop())
	engine := NewRouter(&handlers.Handler{DB: db, Tokens: tokens}, Options{Hub: hub})

	server := httptest.NewServer(engine)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws?topic=monitor"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg["type"])

	require.Eventually(t, func() bool { return hub.ClientCount("monitor") == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastRefresh("monitor")
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "refresh", msg["type"])
}
