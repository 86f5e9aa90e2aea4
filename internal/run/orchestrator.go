// Package run sends one prompt to several models and records the outcome.
package run

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/chatcompare/internal/llm"
	"github.com/abhisek/chatcompare/internal/logger"
	"github.com/abhisek/chatcompare/internal/pricing"
)

// DefaultConcurrency bounds the number of in-flight model calls per run.
const DefaultConcurrency = 4

// Saver persists run records. The store implements it.
type Saver interface {
	Save(ctx context.Context, rec *Record) (int64, error)
}

// CredentialChecker reports whether any model provider can be reached.
type CredentialChecker interface {
	HasCredentials() bool
}

// Orchestrator fans a request out to every model and saves the result.
type Orchestrator struct {
	provider    llm.Provider
	prices      pricing.Table
	saver       Saver
	creds       CredentialChecker
	now         func() time.Time
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithConcurrency sets how many models are called at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithCredentials installs the credential check run before any call.
// Without one, credentials are assumed present.
func WithCredentials(c CredentialChecker) Option {
	return func(o *Orchestrator) { o.creds = c }
}

// New creates an Orchestrator.
func New(provider llm.Provider, prices pricing.Table, saver Saver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:    provider,
		prices:      prices,
		saver:       saver,
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute calls every requested model, aggregates usage over the ones that
// succeed and saves the run. Per-model failures are reported in the results.
// If saving fails the summary is still returned, with a *PersistError.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Summary, error) {
	if o.creds != nil && !o.creds.HasCredentials() {
		return nil, ErrNoCredentials
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		return nil, ErrEmptyPrompt
	}
	models := NormalizeModels(req.Models)
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	runID := uuid.NewString()
	ctx = llm.WithRunID(ctx, runID)
	logger.Info("run started", "run", runID, "models", strings.Join(models, ","))

	outcomes := make([]Outcome, len(models))
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, model := range models {
		g.Go(func() error {
			outcomes[i] = o.call(ctx, model, req)
			return nil
		})
	}
	g.Wait()

	rec := &Record{
		RunUUID:          runID,
		CreatedAt:        o.now().UTC(),
		SystemPrompt:     req.SystemPrompt,
		UserPrompt:       req.UserPrompt,
		Models:           models,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		MaxTokens:        req.MaxTokens,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Results:          make(Results, len(models)),
	}
	for i, model := range models {
		out := outcomes[i]
		rec.Results[i] = Result{Model: model, Outcome: out}
		if out.IsSuccess() {
			rec.PromptTokens += out.PromptTokens()
			rec.CompletionTokens += out.CompletionTokens()
			rec.Cost += out.Cost()
		}
	}

	summary := &Summary{
		RunUUID:          runID,
		Results:          rec.Results,
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		Cost:             rec.Cost,
	}

	id, err := o.saver.Save(ctx, rec)
	if err != nil {
		logger.Error("failed to save run", "run", runID, "err", err)
		return summary, &PersistError{Err: err}
	}
	rec.ID = id
	summary.ID = id

	logger.Info("run finished",
		"run", runID,
		"id", id,
		"succeeded", rec.Results.Succeeded(),
		"failed", len(models)-rec.Results.Succeeded(),
		"cost", rec.Cost,
	)
	return summary, nil
}

func (o *Orchestrator) call(ctx context.Context, model string, req Request) Outcome {
	resp, err := o.provider.Generate(ctx, llm.Request{
		Model:    model,
		System:   req.SystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: req.UserPrompt}},
		Params:   req.Params(),
	})
	if err != nil {
		logger.Warn("model call failed", "model", model, "err", err)
		return Failed(err.Error())
	}

	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	return Succeeded(resp.Text, in, out, o.prices.Estimate(model, in, out))
}
