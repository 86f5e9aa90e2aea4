package llm

import (
	"context"
	"time"

	"github.com/abhisek/chatcompare/internal/logger"
)

// CallEvent captures a single model call.
type CallEvent struct {
	RunID        string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	Timestamp    time.Time
}

// EventSink receives call events. The store implements it.
type EventSink interface {
	AppendCall(ctx context.Context, ev CallEvent) error
}

// LoggingProvider is a decorator that records every model call as an event.
type LoggingProvider struct {
	inner Provider
	sink  EventSink
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, sink EventSink) Provider {
	return &LoggingProvider{inner: p, sink: sink}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	ev := CallEvent{
		RunID:     RunIDFrom(ctx),
		Provider:  l.providerName(req.Model),
		Model:     req.Model,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		Timestamp: start.UTC(),
	}

	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
	}

	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// Log the event but don't fail the request if logging fails.
	if logErr := l.sink.AppendCall(ctx, ev); logErr != nil {
		logger.Warn("failed to record model call", "model", req.Model, "err", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) Name() string {
	return l.inner.Name()
}

func (l *LoggingProvider) providerName(model string) string {
	if r, ok := l.inner.(interface{ ProviderFor(string) string }); ok {
		return r.ProviderFor(model)
	}
	return l.inner.Name()
}
