package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/abhisek/chatcompare/internal/logger"
	"github.com/abhisek/chatcompare/internal/pricing"
	"github.com/abhisek/chatcompare/internal/run"
)

// maxRequestBodySize limits the size of incoming request bodies (1MB).
const maxRequestBodySize = 1 << 20

// Runner executes a comparison run.
type Runner interface {
	Execute(ctx context.Context, req run.Request) (*run.Summary, error)
}

// History lists saved runs.
type History interface {
	ListRecent(ctx context.Context, limit int) ([]run.Record, error)
}

// Handlers contains the HTTP handler methods for the API.
type Handlers struct {
	runner  Runner
	history History
	prices  pricing.Table
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(runner Runner, history History, prices pricing.Table) *Handlers {
	return &Handlers{runner: runner, history: history, prices: prices}
}

// HandleRun handles POST /api/run.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		WriteError(w, &requestError{Err: fmt.Errorf("read request body: %w", err)})
		return
	}
	if len(body) > maxRequestBodySize {
		WriteError(w, &requestError{Err: fmt.Errorf("request body too large (max %d bytes)", maxRequestBodySize)})
		return
	}

	if err := validateRunRequest(body); err != nil {
		WriteError(w, err)
		return
	}

	req := run.DefaultRequest()
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, &requestError{Err: fmt.Errorf("invalid JSON: %w", err)})
		return
	}

	summary, err := h.runner.Execute(r.Context(), req)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// HandleHistory handles GET /api/history.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteError(w, &requestError{Err: fmt.Errorf("invalid limit %q", v)})
			return
		}
		limit = n
	}

	recs, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []run.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// modelInfo is one entry of GET /api/models.
type modelInfo struct {
	ID              string  `json:"id"`
	PromptPer1K     float64 `json:"prompt_per_1k"`
	CompletionPer1K float64 `json:"completion_per_1k"`
}

// HandleModels handles GET /api/models.
func (h *Handlers) HandleModels(w http.ResponseWriter, r *http.Request) {
	models := make([]modelInfo, 0, len(h.prices))
	for _, id := range h.prices.Models() {
		p, _ := h.prices.Lookup(id)
		models = append(models, modelInfo{ID: id, PromptPer1K: p.PromptPer1K, CompletionPer1K: p.CompletionPer1K})
	}
	writeJSON(w, http.StatusOK, models)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write response", "err", err)
	}
}
