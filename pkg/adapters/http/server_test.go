package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/triage/internal/nodestore"
	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/file"
	httpadapter "github.com/aretw0/triage/pkg/adapters/http"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/observability"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	manager *session.Manager
}

func newFixture(t *testing.T, opts ...httpadapter.Option) *fixture {
	t.Helper()
	return newFixtureWithHooks(t, domain.LifecycleHooks{}, opts...)
}

func newFixtureWithHooks(t *testing.T, hooks domain.LifecycleHooks, opts ...httpadapter.Option) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore(), hooks, opts...)
}

func newFixtureWithStore(t *testing.T, store ports.StateStore, hooks domain.LifecycleHooks, opts ...httpadapter.Option) *fixture {
	t.Helper()
	nodes, err := nodestore.New(
		[]domain.QuestionNode{
			{ID: "1", Label: "Fever?", Answers: []string{"Yes", "No"}, Next: []string{"question:2", "prompt:1"}},
			{ID: "2", Label: "Above 39°C?", Answers: []string{"Yes", "No", "Unsure"}, Next: []string{"prompt:2", "prompt:99", "maybe:3"}},
		},
		[]domain.PromptNode{
			{ID: "1", Label: "Rest at home", Action: "Drink fluids."},
			{ID: "2", Label: "See a doctor", Action: "Today."},
		},
	)
	require.NoError(t, err)

	manager := session.NewManager(store)
	ctrl := runtime.NewController(nodes, runtime.WithLifecycleHooks(hooks))
	handler, err := httpadapter.NewHandler(runner.NewSessions(ctrl, manager), nodes, opts...)
	require.NoError(t, err)
	return &fixture{handler: handler, manager: manager}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAPI_FeverWalk(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/sessions", `{"session_id":"s1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[runner.RichResponse](t, w)
	assert.Equal(t, "s1", resp.SessionID)
	require.NotNil(t, resp.Question)
	assert.Equal(t, "Fever?", resp.Question.Label)
	assert.Equal(t, []string{"Yes", "No"}, resp.Question.Answers)

	w = f.do(t, "POST", "/sessions/s1/answer", `{"answer":"Maybe"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errResp := decode[httpadapter.ErrorResponse](t, w)
	assert.Equal(t, "invalid_answer", errResp.Kind)
	require.NotNil(t, errResp.Session)
	assert.Equal(t, domain.DefaultEntryRef, errResp.Session.State.Current)

	w = f.do(t, "POST", "/sessions/s1/answer", `{"answer":"Yes"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[runner.RichResponse](t, w)
	assert.Equal(t, "Above 39°C?", resp.Question.Label)

	w = f.do(t, "POST", "/sessions/s1/answer", `{"answer":"Unsure"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "malformed_reference", decode[httpadapter.ErrorResponse](t, w).Kind)

	w = f.do(t, "POST", "/sessions/s1/answer", `{"answer":"No"}`)
	require.Equal(t, http.StatusOK, w.Code, "a missing node fails the session, not the request")
	resp = decode[runner.RichResponse](t, w)
	assert.Equal(t, domain.PhaseFailed, resp.State.Phase)
	assert.True(t, resp.Terminal)
	assert.Equal(t, []string{`prompt "99" not found`}, resp.Errors)

	w = f.do(t, "POST", "/sessions/s1/answer", `{"answer":"Yes"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_awaiting_answer", decode[httpadapter.ErrorResponse](t, w).Kind)

	w = f.do(t, "POST", "/sessions/s1/restart", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[runner.RichResponse](t, w)
	assert.Equal(t, domain.PhaseAwaitingQuestion, resp.State.Phase)
	assert.Equal(t, []domain.StepRef{domain.DefaultEntryRef}, resp.State.History)

	w = f.do(t, "POST", "/sessions/s1/answer", `{"answer":"No"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[runner.RichResponse](t, w)
	assert.Equal(t, domain.PhaseHalted, resp.State.Phase)
	require.NotNil(t, resp.Prompt)
	assert.Equal(t, "Rest at home", resp.Prompt.Label)

	w = f.do(t, "GET", "/sessions/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Drink fluids.", decode[runner.RichResponse](t, w).Prompt.Action)
}

func TestAPI_Sessions(t *testing.T) {
	f := newFixture(t)

	t.Run("generated id", func(t *testing.T) {
		w := f.do(t, "POST", "/sessions", "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Len(t, decode[runner.RichResponse](t, w).SessionID, 26)
	})

	t.Run("unknown session", func(t *testing.T) {
		for _, tc := range []struct{ method, path, body string }{
			{"GET", "/sessions/missing", ""},
			{"POST", "/sessions/missing/answer", `{"answer":"Yes"}`},
			{"POST", "/sessions/missing/restart", ""},
		} {
			w := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
			assert.Equal(t, "session_not_found", decode[httpadapter.ErrorResponse](t, w).Kind)
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, f.do(t, "POST", "/sessions", `{"session_id":"gone"}`).Code)
		assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/sessions/gone", "").Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/sessions/gone", "").Code)
	})
}

func TestAPI_RequestValidation(t *testing.T) {
	f := newFixture(t, httpadapter.WithMaxInputSize(8))
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/sessions", `{"session_id":"s1"}`).Code)

	tests := []struct {
		name string
		body string
	}{
		{"missing answer", `{}`},
		{"wrong type", `{"answer":5}`},
		{"empty answer", `{"answer":""}`},
		{"unknown field", `{"answer":"Yes","extra":true}`},
		{"not json", `answer=Yes`},
		{"too large", `{"answer":"Yes Yes Yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, "POST", "/sessions/s1/answer", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "bad_request", decode[httpadapter.ErrorResponse](t, w).Kind)
		})
	}

	state, err := f.manager.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEntryRef, state.Current, "rejected requests never reach the session")
}

func TestGraph(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/sessions", `{"session_id":"s1"}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/sessions/s1/answer", `{"answer":"Yes"}`).Code)

	w := f.do(t, "GET", "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `question_1 -- "Yes" --> question_2`)
	assert.NotContains(t, w.Body.String(), "classDef visited")

	w = f.do(t, "GET", "/graph?session_id=s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class question_1 visited;")
	assert.Contains(t, w.Body.String(), "class question_2 current;")

	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/graph?session_id=nope", "").Code)
}

func TestHealthSpecAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	f := newFixtureWithHooks(t, metrics.Hooks(), httpadapter.WithMetrics(reg))

	w := f.do(t, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]string](t, w)
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, health["version"])
	assert.Equal(t, "0.4.0", health["api_version"])

	w = f.do(t, "GET", "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/sessions/{id}/answer")

	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/sessions", `{"session_id":"s1"}`).Code)
	w = f.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `triage_step_entries_total{kind="question"} 1`)

	assert.Equal(t, http.StatusNotFound, newFixture(t).do(t, "GET", "/metrics", "").Code)
}

func TestPage(t *testing.T) {
	f := newFixture(t, httpadapter.WithTitle("Fever Clinic"))

	post := func(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)
		return w
	}

	w := f.do(t, "GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Fever Clinic</title>")
	assert.Contains(t, body, "Fever?")
	assert.Contains(t, body, `value="Yes"`)
	assert.Contains(t, body, "#E0E0E0")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, httpadapter.SessionCookie, cookie.Name)

	w = post("/answer", url.Values{"answer": {"Maybe"}}, cookie)
	body = w.Body.String()
	assert.Contains(t, body, `class="error"`)
	assert.Contains(t, body, "is not offered by question")
	assert.Contains(t, body, `value="Yes"`, "the question is drawn again under the error")

	w = post("/answer", url.Values{"answer": {"No"}}, cookie)
	body = w.Body.String()
	assert.Contains(t, body, "Rest at home")
	assert.Contains(t, body, "Drink fluids.")
	assert.NotContains(t, body, `name="answer"`)

	w = post("/restart", nil, cookie)
	assert.Contains(t, w.Body.String(), "Fever?")

	state, err := f.manager.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingQuestion, state.Phase)
}

func TestPage_WithoutCookie(t *testing.T) {
	f := newFixtureWithStore(t, file.New(t.TempDir()), domain.LifecycleHooks{})

	post := func(path string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)
		return w
	}

	for _, path := range []string{"/restart", "/answer"} {
		t.Run(path, func(t *testing.T) {
			w := post(path, url.Values{"answer": {"No"}})
			require.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, "Fever?", "a new session starts at the first question")
			assert.NotContains(t, body, `class="error"`)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			require.NotEmpty(t, cookies[0].Value)

			state, err := f.manager.Load(context.Background(), cookies[0].Value)
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultEntryRef, state.Current)
		})
	}
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/sessions", `{"session_id":"s1"}`).Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	lines := bufio.NewScanner(res.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q: %v", prefix, lines.Err())
		return ""
	}

	assert.Equal(t, "data: connected", readUntil("data:"))

	require.Equal(t, http.StatusOK, f.do(t, "POST", "/sessions/s1/answer", `{"answer":"Yes"}`).Code)
	readUntil("event: update")
	data := strings.TrimPrefix(readUntil("data:"), "data: ")

	var update runner.RichResponse
	require.NoError(t, json.Unmarshal([]byte(data), &update))
	assert.Equal(t, "Above 39°C?", update.Question.Label)
}

func TestStreamManager(t *testing.T) {
	sm := httpadapter.NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", "hello")
	sm.Broadcast("s2", "ignored")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("s1", "flood")
	}

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, 10, n, "slow subscribers drop messages beyond the buffer")
}
