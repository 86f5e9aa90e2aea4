package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/chatcompare/internal/llm"
	"github.com/abhisek/chatcompare/internal/pricing"
	"github.com/abhisek/chatcompare/internal/run"
	"github.com/abhisek/chatcompare/internal/store"
)

type testEnv struct {
	handler http.Handler
	mock    *llm.MockProvider
	store   *store.Store
}

type staticCreds bool

func (c staticCreds) HasCredentials() bool { return bool(c) }

func newTestEnv(t *testing.T, creds bool, responses ...llm.MockResponse) *testEnv {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	mock := llm.NewMockProvider(responses...)
	orch := run.New(mock, pricing.Default(), s, run.WithCredentials(staticCreds(creds)))

	return &testEnv{
		handler: NewHandlers(orch, s, pricing.Default()).Routes(),
		mock:    mock,
		store:   s,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleRun(t *testing.T) {
	env := newTestEnv(t, true,
		llm.MockResponse{Model: "gpt-4", Text: "Paris", Usage: llm.Usage{InputTokens: 1000, OutputTokens: 500}},
		llm.MockResponse{Model: "gpt-3.5-turbo", Err: errors.New("model overloaded")},
	)

	rec := env.do(t, http.MethodPost, "/api/run",
		`{"system_prompt":"terse","user_prompt":"Capital of France?","models":["gpt-4","gpt-3.5-turbo"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp struct {
		ID               int64                      `json:"id"`
		Results          map[string]json.RawMessage `json:"results"`
		PromptTokens     int                        `json:"prompt_tokens"`
		CompletionTokens int                        `json:"completion_tokens"`
		Cost             float64                    `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, `"Paris"`, string(resp.Results["gpt-4"]))
	assert.JSONEq(t, `{"error":"model overloaded"}`, string(resp.Results["gpt-3.5-turbo"]))
	assert.Equal(t, 1000, resp.PromptTokens)
	assert.Equal(t, 500, resp.CompletionTokens)
	assert.InDelta(t, 0.06, resp.Cost, 1e-12)
	assert.NotZero(t, resp.ID)

	// Keys keep request order on the wire.
	assert.Less(t, bytes.Index(rec.Body.Bytes(), []byte(`"gpt-4"`)), bytes.Index(rec.Body.Bytes(), []byte(`"gpt-3.5-turbo"`)))
}

func TestHandleRunAppliesDefaults(t *testing.T) {
	env := newTestEnv(t, true, llm.MockResponse{Text: "ok"})

	rec := env.do(t, http.MethodPost, "/api/run", `{"user_prompt":"hi","models":["gpt-4"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, env.mock.Calls, 1)
	assert.Equal(t, llm.DefaultParams(), env.mock.Calls[0].Params)
	assert.Equal(t, "", env.mock.Calls[0].System)
}

func TestHandleRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		creds  bool
		body   string
		status int
		code   ErrorCode
	}{
		{"no credentials", false, `{"user_prompt":"hi","models":["gpt-4"]}`, http.StatusBadRequest, CodeNoCredentials},
		{"malformed json", true, `{"user_prompt":`, http.StatusBadRequest, CodeInvalidInput},
		{"missing models", true, `{"user_prompt":"hi"}`, http.StatusUnprocessableEntity, CodeInvalidSchema},
		{"wrong type", true, `{"user_prompt":"hi","models":["gpt-4"],"max_tokens":"many"}`, http.StatusUnprocessableEntity, CodeInvalidSchema},
		{"fractional max tokens", true, `{"user_prompt":"hi","models":["gpt-4"],"max_tokens":1.5}`, http.StatusUnprocessableEntity, CodeInvalidSchema},
		{"empty model list", true, `{"user_prompt":"hi","models":[]}`, http.StatusBadRequest, CodeInvalidInput},
		{"blank prompt", true, `{"user_prompt":"  ","models":["gpt-4"]}`, http.StatusBadRequest, CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.creds)
			rec := env.do(t, http.MethodPost, "/api/run", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.code), body.Code)
			assert.NotEmpty(t, body.Detail)
			assert.Zero(t, env.mock.CallCount())

			recs, err := env.store.ListRecent(context.Background(), 10)
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestHandleHistory(t *testing.T) {
	env := newTestEnv(t, true)
	for i := 0; i < 3; i++ {
		env.mock.AddResponse(llm.MockResponse{Text: "answer"})
		rec := env.do(t, http.MethodPost, "/api/run", `{"user_prompt":"q","models":["gpt-4"]}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/history?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)

	first := history[0]
	for _, key := range []string{"id", "timestamp", "models", "system_prompt", "user_prompt", "results", "input_tokens", "output_tokens", "cost"} {
		assert.Contains(t, first, key)
	}
	assert.Greater(t, first["id"].(float64), history[1]["id"].(float64))
	assert.Equal(t, []any{"gpt-4"}, first["models"])
	assert.Equal(t, map[string]any{"gpt-4": "answer"}, first["results"])
}

func TestHandleHistoryEmptyAndBadLimit(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleModels(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var models []modelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	require.NotEmpty(t, models)

	var found bool
	for _, m := range models {
		if m.ID == "gpt-4" {
			found = true
			assert.Equal(t, 0.03, m.PromptPer1K)
			assert.Equal(t, 0.06, m.CompletionPer1K)
		}
	}
	assert.True(t, found, "gpt-4 missing from catalog")
}

func TestHealthAndCORS(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/api/run", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	pre := httptest.NewRecorder()
	env.handler.ServeHTTP(pre, req)

	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Headers"))
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(t, http.MethodGet, "/api/run", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPersistErrorMapsTo500(t *testing.T) {
	err := MapError(&run.PersistError{Err: errors.New("disk full")})
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, CodePersistFailed, err.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t, true)
	srv := New("127.0.0.1:0", nil, env.store, pricing.Default())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
