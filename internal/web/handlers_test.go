package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/contravault/internal/auth"
	"github.com/sandeepkv93/contravault/internal/gamification"
	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
	"github.com/sandeepkv93/contravault/internal/tasks"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	tokens  map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	now := func() time.Time { return testNow }
	logger := log.New(io.Discard, "", 0)
	tracker := gamification.NewTracker(repo, gamification.WithClock(now), gamification.WithLocation(time.UTC))
	engine := tasks.NewEngine(repo, tasks.WithRecorder(tracker), tasks.WithClock(now), tasks.WithLogger(logger))

	issuer, err := auth.NewIssuer("web-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	srv := NewServer(engine, auth.NewResolver(issuer, ""), Options{Location: time.UTC, Now: now, Logger: logger})

	ts := &testServer{t: t, handler: srv.Handler(), tokens: map[string]string{}}
	for _, user := range []string{"u1", "u2"} {
		token, _, err := issuer.Issue(user, user+"@example.com")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		ts.tokens[user] = token
	}
	return ts
}

func (ts *testServer) do(user, method, path string, body any) (int, envelope) {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+ts.tokens[user])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		ts.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

func createBody(title string, deadline time.Time, priority model.Priority) map[string]any {
	return map[string]any{
		"title":       title,
		"description": title + " details",
		"deadline":    deadline.Format(time.RFC3339),
		"priority":    priority,
	}
}

func (ts *testServer) create(user, title string, deadline time.Time, priority model.Priority) model.Task {
	ts.t.Helper()
	code, env := ts.do(user, http.MethodPost, "/api/tasks", createBody(title, deadline, priority))
	if code != http.StatusCreated || !env.Success {
		ts.t.Fatalf("create %s: %d %s", title, code, env.Error)
	}
	return decode[model.Task](ts.t, env)
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do("", http.MethodGet, "/healthz", nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("unexpected health response: %d %+v", code, env)
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do("", http.MethodGet, "/api/tasks", nil)
	if code != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401, got %d %+v", code, env)
	}
}

func TestCreateAndConflict(t *testing.T) {
	ts := newTestServer(t)
	deadline := testNow.Add(24 * time.Hour)
	task := ts.create("u1", "report", deadline, model.PriorityHigh)
	if task.Status != model.StatusPending || task.UserID != "u1" {
		t.Fatalf("unexpected task: %+v", task)
	}

	code, env := ts.do("u1", http.MethodPost, "/api/tasks", createBody("clash", deadline.Add(30*time.Second), model.PriorityLow))
	if code != http.StatusConflict || env.Success {
		t.Fatalf("expected 409, got %d %+v", code, env)
	}

	ts.create("u2", "other user", deadline, model.PriorityLow)

	code, env = ts.do("u1", http.MethodPost, "/api/tasks", map[string]any{"title": "no deadline", "description": "x", "priority": "low"})
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400, got %d %+v", code, env)
	}
	code, _ = ts.do("u1", http.MethodPost, "/api/tasks", createBody("bad", deadline.Add(time.Hour), "urgent"))
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown priority, got %d", code)
	}
}

func TestListSortsAndFilters(t *testing.T) {
	ts := newTestServer(t)
	a := ts.create("u1", "A", testNow.Add(3*time.Hour), model.PriorityHigh)
	b := ts.create("u1", "B", testNow.Add(time.Hour), model.PriorityMedium)
	c := ts.create("u1", "C", testNow.Add(2*time.Hour), model.PriorityHigh)
	ts.create("u2", "foreign", testNow.Add(time.Hour), model.PriorityHigh)

	code, env := ts.do("u1", http.MethodGet, "/api/tasks", nil)
	if code != http.StatusOK {
		t.Fatalf("list: %d %s", code, env.Error)
	}
	list := decode[[]model.Task](t, env)
	if len(list) != 3 || list[0].ID != c.ID || list[1].ID != a.ID || list[2].ID != b.ID {
		t.Fatalf("unexpected order: %+v", list)
	}

	_, env = ts.do("u1", http.MethodGet, "/api/tasks?priority=medium", nil)
	if got := decode[[]model.Task](t, env); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("unexpected priority filter: %+v", got)
	}
	code, _ = ts.do("u1", http.MethodGet, "/api/tasks?priority=urgent", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown priority filter, got %d", code)
	}
	code, _ = ts.do("u1", http.MethodGet, "/api/tasks?from=yesterday", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", code)
	}
}

func TestGetUpdateStatusDelete(t *testing.T) {
	ts := newTestServer(t)
	task := ts.create("u1", "write", testNow.Add(time.Hour), model.PriorityLow)
	path := "/api/tasks/" + task.ID

	if code, _ := ts.do("u2", http.MethodGet, path, nil); code != http.StatusNotFound {
		t.Fatalf("other users must get 404, got %d", code)
	}

	code, env := ts.do("u1", http.MethodPut, path, map[string]any{"title": "write more", "status": "done"})
	if code != http.StatusOK {
		t.Fatalf("update: %d %s", code, env.Error)
	}
	updated := decode[model.Task](t, env)
	if updated.Title != "write more" || updated.Status != model.StatusPending {
		t.Fatalf("update must not touch status: %+v", updated)
	}

	code, env = ts.do("u1", http.MethodPatch, path, map[string]any{"status": "done"})
	if code != http.StatusOK || decode[model.Task](t, env).CompletedAt == nil {
		t.Fatalf("complete: %d %s", code, env.Error)
	}
	if code, _ = ts.do("u1", http.MethodPatch, path, map[string]any{"status": "done"}); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for done -> done, got %d", code)
	}

	_, env = ts.do("u1", http.MethodGet, "/api/stats", nil)
	stats := decode[model.UserStats](t, env)
	if stats.TotalTasksCompleted != 1 || stats.CurrentStreak != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if code, _ = ts.do("u1", http.MethodDelete, path, nil); code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	if code, _ = ts.do("u1", http.MethodDelete, path, nil); code != http.StatusNotFound {
		t.Fatalf("second delete: %d", code)
	}
	if code, _ = ts.do("u1", http.MethodGet, path, nil); code != http.StatusNotFound {
		t.Fatalf("deleted task visible: %d", code)
	}
}

func TestTaskExtras(t *testing.T) {
	ts := newTestServer(t)
	parent := ts.create("u1", "parent", testNow.Add(time.Hour), model.PriorityHigh)
	path := "/api/tasks/" + parent.ID

	body := createBody("child", testNow.Add(2*time.Hour), model.PriorityLow)
	body["parentTaskId"] = parent.ID
	if code, env := ts.do("u1", http.MethodPost, "/api/tasks", body); code != http.StatusCreated {
		t.Fatalf("create child: %d %s", code, env.Error)
	}
	_, env := ts.do("u1", http.MethodGet, path+"/subtasks", nil)
	if subs := decode[[]model.Task](t, env); len(subs) != 1 || subs[0].Title != "child" {
		t.Fatalf("unexpected subtasks: %+v", subs)
	}

	code, env := ts.do("u1", http.MethodPost, path+"/snooze", map[string]any{"until": testNow.Add(3 * time.Hour).Format(time.RFC3339)})
	if code != http.StatusOK || decode[model.Task](t, env).SnoozedUntil == nil {
		t.Fatalf("snooze: %d %s", code, env.Error)
	}
	code, _ = ts.do("u1", http.MethodPost, path+"/snooze", map[string]any{"until": testNow.Add(-time.Hour).Format(time.RFC3339)})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for past snooze, got %d", code)
	}

	code, env = ts.do("u1", http.MethodPost, path+"/comments", map[string]any{"content": "looks good"})
	if code != http.StatusCreated || len(decode[model.Task](t, env).Comments) != 1 {
		t.Fatalf("comment: %d %s", code, env.Error)
	}

	code, env = ts.do("u1", http.MethodPost, path+"/time", map[string]any{"minutes": 25})
	if code != http.StatusOK || decode[model.Task](t, env).SpentMinutes != 25 {
		t.Fatalf("time: %d %s", code, env.Error)
	}
}

func TestBatchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	a := ts.create("u1", "a", testNow.Add(time.Hour), model.PriorityLow)
	b := ts.create("u1", "b", testNow.Add(2*time.Hour), model.PriorityLow)
	foreign := ts.create("u2", "x", testNow.Add(time.Hour), model.PriorityLow)

	code, env := ts.do("u1", http.MethodPost, "/api/tasks/batch", map[string]any{
		"taskIds":   []string{a.ID, b.ID, foreign.ID},
		"operation": "archive",
	})
	if code != http.StatusOK {
		t.Fatalf("batch: %d %s", code, env.Error)
	}
	if got := decode[map[string]int](t, env)["count"]; got != 2 {
		t.Fatalf("expected 2 archived, got %d", got)
	}

	code, _ = ts.do("u1", http.MethodPost, "/api/tasks/batch", map[string]any{"taskIds": []string{a.ID}, "operation": "explode"})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown operation, got %d", code)
	}
}

func TestQuickCommand(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do("u1", http.MethodPost, "/api/tasks/quick", map[string]any{"command": "add pay rent @2026-03-11T09:00 !high #finance"})
	if code != http.StatusOK {
		t.Fatalf("quick add: %d %s", code, env.Error)
	}
	res := decode[struct {
		Message string     `json:"message"`
		Result  model.Task `json:"result"`
	}](t, env)
	if res.Result.Title != "pay rent" || res.Result.Priority != model.PriorityHigh {
		t.Fatalf("unexpected quick add: %+v", res)
	}

	code, _ = ts.do("u1", http.MethodPost, "/api/tasks/quick", map[string]any{"command": "add clash @2026-03-11T09:00"})
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	code, _ = ts.do("u1", http.MethodPost, "/api/tasks/quick", map[string]any{"command": "launch rockets"})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown command, got %d", code)
	}
}

func TestViewsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.create("u1", "soon", testNow.Add(time.Hour), model.PriorityHigh)
	ts.create("u1", "later", testNow.Add(72*time.Hour), model.PriorityLow)

	for _, view := range []string{"list", "kanban", "calendar", "timeline", "matrix", "dashboard"} {
		code, env := ts.do("u1", http.MethodGet, "/api/views/"+view+"?month=2026-03", nil)
		if code != http.StatusOK || !env.Success {
			t.Fatalf("view %s: %d %s", view, code, env.Error)
		}
	}
	_, env := ts.do("u1", http.MethodGet, "/api/views/matrix", nil)
	matrix := decode[struct {
		Quadrants []struct {
			Key   string       `json:"key"`
			Tasks []model.Task `json:"tasks"`
		} `json:"quadrants"`
	}](t, env)
	if matrix.Quadrants[0].Key != "do_first" || len(matrix.Quadrants[0].Tasks) != 1 {
		t.Fatalf("unexpected matrix: %+v", matrix)
	}
	if code, _ := ts.do("u1", http.MethodGet, "/api/views/gantt", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown view, got %d", code)
	}
	if code, _ := ts.do("u1", http.MethodGet, "/api/views/calendar?month=March", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", code)
	}
}

func TestStatusForOpaqueStoreErrors(t *testing.T) {
	code, msg := statusFor(&tasks.StoreError{Op: "find", Err: io.ErrUnexpectedEOF})
	if code != http.StatusInternalServerError || msg != "internal error" {
		t.Fatalf("unexpected mapping: %d %q", code, msg)
	}
}
