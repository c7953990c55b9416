package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/surfer/internal/ai/aitest"
	"github.com/neboloop/surfer/internal/chat"
	"github.com/neboloop/surfer/internal/config"
	"github.com/neboloop/surfer/internal/db"
	"github.com/neboloop/surfer/internal/jobs"
	"github.com/neboloop/surfer/internal/lifecycle"
	"github.com/neboloop/surfer/internal/loop"
	"github.com/neboloop/surfer/internal/realtime"
	"github.com/neboloop/surfer/internal/svc"
)

type gatedRunner struct {
	release chan struct{}
	result  string
}

func (g *gatedRunner) Run(ctx context.Context) (string, error) {
	select {
	case <-g.release:
		return g.result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type fixture struct {
	svcCtx  *svc.ServiceContext
	llm     *aitest.Provider
	handler http.Handler

	mu      sync.Mutex
	runners map[string]*gatedRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		llm:     aitest.New(),
		runners: make(map[string]*gatedRunner),
	}

	var c config.Config
	c.Agent.DefaultTask = config.DefaultTask

	events := lifecycle.NewManager()
	l := loop.New()
	hub := realtime.NewHub()
	hub.Attach(events)
	f.svcCtx = &svc.ServiceContext{
		Config:  c,
		Version: "test",
		Loop:    l,
		Events:  events,
		Chat:    chat.New(f.llm),
		Hub:     hub,
		Jobs: jobs.NewRegistry(l, func(task string) (jobs.Runner, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			r := &gatedRunner{release: make(chan struct{}), result: "result of " + task}
			f.runners[task] = r
			return r, nil
		}, jobs.WithEvents(events)),
	}
	l.Start()
	t.Cleanup(func() { f.svcCtx.Close() })

	f.handler = NewRouter(f.svcCtx)
	return f
}

func (f *fixture) release(task string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.runners[task].release)
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestAgentScenario(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/web-agent", `{"task":"t1"}`)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "Started web-agent task: t1", body["response"])

	code, body = f.do(t, http.MethodPost, "/web-agent", `{"task":"t2"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "An agent task is already running.", body["error"])

	_, body = f.do(t, http.MethodGet, "/agent-status", "")
	assert.Equal(t, map[string]any{"running": true}, body)

	f.release("t1")
	require.Eventually(t, func() bool {
		_, body = f.do(t, http.MethodGet, "/agent-status", "")
		return body["completed"] == true
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "result of t1", body["result"])

	// the terminal result is sticky until the next start
	_, again := f.do(t, http.MethodGet, "/agent-status", "")
	assert.Equal(t, body, again)

	code, body = f.do(t, http.MethodPost, "/web-agent", `{"task":"t2"}`)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "Started web-agent task: t2", body["response"])

	code, body = f.do(t, http.MethodPost, "/stop-agent", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Agent cancelled by user.", body["response"])

	_, body = f.do(t, http.MethodGet, "/agent-status", "")
	assert.Equal(t, map[string]any{"running": false}, body)

	_, body = f.do(t, http.MethodPost, "/stop-agent", "")
	assert.Equal(t, "No agent was running.", body["response"])
}

func TestStatusWhenIdle(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/agent-status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"running": false}, body)
}

func TestWebAgentDefaultTask(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodPost, "/web-agent", `{}`)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "Started web-agent task: facebook ceo", body["response"])
	f.release(config.DefaultTask)
}

func TestChat(t *testing.T) {
	f := newFixture(t)
	f.llm.Push(aitest.Reply{Text: "hello there"})
	f.llm.Push(aitest.Reply{Err: errors.New("x")})

	code, body := f.do(t, http.MethodPost, "/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello there", body["response"])

	code, body = f.do(t, http.MethodPost, "/chat", `{"message":"again"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, map[string]any{"error": "x"}, body)
}

func TestChatRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])

	code, body = f.do(t, http.MethodPost, "/chat", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "message is empty", body["error"])
	assert.Empty(t, f.llm.Requests())
}

func TestHistoryWithoutStore(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/agent-history?limit=5", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["runs"])
}

func TestHistoryRecordsRuns(t *testing.T) {
	f := newFixture(t)
	store, err := db.NewSQLite(filepath.Join(t.TempDir(), "surfer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.Subscribe(f.svcCtx.Events)
	f.svcCtx.History = store

	_, err = f.svcCtx.Jobs.Start("t1")
	require.NoError(t, err)
	f.release("t1")

	var body map[string]any
	require.Eventually(t, func() bool {
		_, body = f.do(t, http.MethodGet, "/agent-history", "")
		runs, _ := body["runs"].([]any)
		if len(runs) != 1 {
			return false
		}
		return runs[0].(map[string]any)["status"] == db.RunCompleted
	}, 2*time.Second, 10*time.Millisecond)

	run := body["runs"].([]any)[0].(map[string]any)
	assert.Equal(t, "t1", run["task"])
	assert.Equal(t, "result of t1", run["result"])
}

func TestHealthAndIndex(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Surfer</title>")
}

func TestStatusStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	_, err := f.svcCtx.Jobs.Start("t1")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/agent-status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, map[string]any{"running": true}, frame)

	f.release("t1")
	frame = nil
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, true, frame["completed"])
	assert.Equal(t, "result of t1", frame["result"])

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
