package run

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/chatcompare/internal/llm"
	"github.com/abhisek/chatcompare/internal/pricing"
)

type memSaver struct {
	mu      sync.Mutex
	records []*Record
	err     error
}

func (s *memSaver) Save(_ context.Context, rec *Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.records = append(s.records, rec)
	return int64(len(s.records)), nil
}

type credsFunc func() bool

func (f credsFunc) HasCredentials() bool { return f() }

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

func newTestOrchestrator(p llm.Provider, s Saver, opts ...Option) *Orchestrator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(p, pricing.Default(), s, opts...)
}

func usage(in, out int) llm.Usage {
	return llm.Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}

func TestExecute_OneFailureOfThree(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Model: "gpt-4", Text: "four", Usage: usage(1000, 500)},
		llm.MockResponse{Model: "gpt-3.5-turbo", Err: &llm.ErrProviderUnavailable{Err: errors.New("boom")}},
		llm.MockResponse{Model: "unknown-model", Text: "free", Usage: usage(10, 20)},
	)
	saver := &memSaver{}
	o := newTestOrchestrator(mock, saver)

	req := DefaultRequest()
	req.UserPrompt = "hello"
	req.Models = []string{"gpt-4", "gpt-3.5-turbo", "unknown-model"}

	sum, err := o.Execute(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, sum.Results, 3)
	assert.Equal(t, []string{"gpt-4", "gpt-3.5-turbo", "unknown-model"}, sum.Results.Models())
	assert.Equal(t, 2, sum.Results.Succeeded())

	failed, ok := sum.Results.Get("gpt-3.5-turbo")
	require.True(t, ok)
	assert.True(t, failed.IsFailure())
	assert.Contains(t, failed.Err(), "boom")

	assert.Equal(t, 1010, sum.PromptTokens)
	assert.Equal(t, 520, sum.CompletionTokens)
	assert.InDelta(t, 0.06, sum.Cost, 1e-12)

	require.Len(t, saver.records, 1)
	rec := saver.records[0]
	assert.Equal(t, int64(1), sum.ID)
	assert.Equal(t, sum.RunUUID, rec.RunUUID)
	assert.Equal(t, fixedNow.UTC(), rec.CreatedAt)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.Equal(t, sum.PromptTokens, rec.PromptTokens)
	assert.Equal(t, 3, mock.CallCount())
}

func TestExecute_AllFail(t *testing.T) {
	mock := llm.NewMockProvider()
	saver := &memSaver{}
	o := newTestOrchestrator(mock, saver)

	sum, err := o.Execute(context.Background(), Request{
		UserPrompt: "hello",
		Models:     []string{"gpt-4", "claude-sonnet-4-5"},
	})
	require.NoError(t, err)

	assert.Zero(t, sum.PromptTokens)
	assert.Zero(t, sum.CompletionTokens)
	assert.Zero(t, sum.Cost)
	assert.Equal(t, 0, sum.Results.Succeeded())
	require.Len(t, saver.records, 1, "an all-failed run is still recorded")
}

func TestExecute_NoCredentials(t *testing.T) {
	mock := llm.NewEchoProvider()
	saver := &memSaver{}
	o := newTestOrchestrator(mock, saver, WithCredentials(credsFunc(func() bool { return false })))

	sum, err := o.Execute(context.Background(), Request{UserPrompt: "hi", Models: []string{"gpt-4"}})
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Nil(t, sum)
	assert.Zero(t, mock.CallCount())
	assert.Empty(t, saver.records)
}

func TestExecute_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"blank prompt", Request{UserPrompt: "  ", Models: []string{"gpt-4"}}, ErrEmptyPrompt},
		{"no models", Request{UserPrompt: "hi"}, ErrNoModels},
		{"only blank models", Request{UserPrompt: "hi", Models: []string{" ", ""}}, ErrNoModels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewEchoProvider()
			saver := &memSaver{}
			o := newTestOrchestrator(mock, saver)

			_, err := o.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, mock.CallCount())
			assert.Empty(t, saver.records)
		})
	}
}

func TestExecute_PassesPromptAndParams(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "ok"})
	o := newTestOrchestrator(mock, &memSaver{})

	req := Request{
		SystemPrompt:     "be terse",
		UserPrompt:       "capital of France?",
		Models:           []string{"gpt-4"},
		Temperature:      0,
		TopP:             0.5,
		MaxTokens:        42,
		FrequencyPenalty: 1.5,
		PresencePenalty:  -2,
	}
	_, err := o.Execute(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, mock.Calls, 1)
	call := mock.Calls[0]
	assert.Equal(t, "gpt-4", call.Model)
	assert.Equal(t, "be terse", call.System)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "capital of France?"}}, call.Messages)
	assert.Equal(t, req.Params(), call.Params)
}

func TestExecute_DeduplicatesModels(t *testing.T) {
	mock := llm.NewEchoProvider()
	saver := &memSaver{}
	o := newTestOrchestrator(mock, saver)

	sum, err := o.Execute(context.Background(), Request{
		UserPrompt: "hi",
		Models:     []string{"gpt-4", " gpt-4 ", "claude-sonnet-4-5", "gpt-4"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"gpt-4", "claude-sonnet-4-5"}, sum.Results.Models())
	assert.Equal(t, 2, mock.CallCount())
	assert.Equal(t, []string{"gpt-4", "claude-sonnet-4-5"}, saver.records[0].Models)
}

func TestExecute_PersistError(t *testing.T) {
	mock := llm.NewEchoProvider()
	storeErr := errors.New("disk full")
	o := newTestOrchestrator(mock, &memSaver{err: storeErr})

	sum, err := o.Execute(context.Background(), Request{UserPrompt: "hi", Models: []string{"gpt-4"}})

	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, storeErr)
	require.NotNil(t, sum, "summary is returned alongside a persist error")
	assert.Zero(t, sum.ID)
	assert.Equal(t, 1, sum.Results.Succeeded())
}

func TestExecute_RunIDReachesProvider(t *testing.T) {
	var got string
	p := providerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		got = llm.RunIDFrom(ctx)
		return &llm.Response{Text: "ok"}, nil
	})
	o := newTestOrchestrator(p, &memSaver{})

	sum, err := o.Execute(context.Background(), Request{UserPrompt: "hi", Models: []string{"gpt-4"}})
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunUUID)
	assert.Equal(t, sum.RunUUID, got)
}

func TestExecute_BoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	inflight, peak := 0, 0
	p := providerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		mu.Lock()
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inflight--
		mu.Unlock()
		return &llm.Response{Text: req.Model}, nil
	})
	o := newTestOrchestrator(p, &memSaver{}, WithConcurrency(2))

	models := []string{"a", "b", "c", "d", "e", "f"}
	sum, err := o.Execute(context.Background(), Request{UserPrompt: "hi", Models: models})
	require.NoError(t, err)

	assert.LessOrEqual(t, peak, 2)
	assert.Equal(t, models, sum.Results.Models())
	for _, r := range sum.Results {
		assert.Equal(t, r.Model, r.Outcome.Text(), "outcome landed in the wrong slot")
	}
}

func TestExecute_InjectedPrices(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "ok", Usage: usage(2000, 1000)})
	prices := pricing.Table{"house-model": {PromptPer1K: 1, CompletionPer1K: 2}}
	o := New(mock, prices, &memSaver{})

	sum, err := o.Execute(context.Background(), Request{UserPrompt: "hi", Models: []string{"house-model"}})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sum.Cost, 1e-12)

	out, _ := sum.Results.Get("house-model")
	assert.InDelta(t, 4.0, out.Cost(), 1e-12)
}

type providerFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

func (f providerFunc) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

func (f providerFunc) Name() string { return "func" }
