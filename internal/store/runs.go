package store

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/abhisek/chatcompare/internal/run"
)

var runSelectColumns = []string{
	"id", "run_uuid", "created_at", "system_prompt", "user_prompt", "models",
	"temperature", "top_p", "max_tokens", "frequency_penalty", "presence_penalty",
	"results", "prompt_tokens", "completion_tokens", "cost",
}

// Save appends rec and returns its newly assigned id. The record is
// committed before Save returns.
func (s *Store) Save(ctx context.Context, rec *run.Record) (int64, error) {
	models, err := json.Marshal(rec.Models)
	if err != nil {
		return 0, fmt.Errorf("marshal models: %w", err)
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return 0, fmt.Errorf("marshal results: %w", err)
	}

	query, args := sql.Dialect(dialect.SQLite).
		Insert(runsTableName).
		Columns(runSelectColumns[1:]...).
		Values(
			rec.RunUUID, rec.CreatedAt.UTC(), rec.SystemPrompt, rec.UserPrompt, string(models),
			rec.Temperature, rec.TopP, rec.MaxTokens, rec.FrequencyPenalty, rec.PresencePenalty,
			string(results), rec.PromptTokens, rec.CompletionTokens, rec.Cost,
		).
		Query()

	var res stdsql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read run id: %w", err)
	}
	return id, nil
}

// ListRecent returns up to limit runs, newest first. A non-positive limit
// means 20.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]run.Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query, args := sql.Dialect(dialect.SQLite).
		Select(runSelectColumns...).
		From(sql.Table(runsTableName)).
		OrderBy(sql.Desc("id")).
		Limit(limit).
		Query()

	return s.queryRuns(ctx, query, args)
}

// Get returns the run with the given id, or nil if there is none.
func (s *Store) Get(ctx context.Context, id int64) (*run.Record, error) {
	query, args := sql.Dialect(dialect.SQLite).
		Select(runSelectColumns...).
		From(sql.Table(runsTableName)).
		Where(sql.EQ("id", id)).
		Query()

	recs, err := s.queryRuns(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args []any) ([]run.Record, error) {
	rows := &sql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var recs []run.Record
	for rows.Next() {
		var (
			rec       run.Record
			createdAt time.Time
			models    string
			results   string
		)
		err := rows.Scan(
			&rec.ID, &rec.RunUUID, &createdAt, &rec.SystemPrompt, &rec.UserPrompt, &models,
			&rec.Temperature, &rec.TopP, &rec.MaxTokens, &rec.FrequencyPenalty, &rec.PresencePenalty,
			&results, &rec.PromptTokens, &rec.CompletionTokens, &rec.Cost,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.CreatedAt = createdAt.UTC()
		if err := json.Unmarshal([]byte(models), &rec.Models); err != nil {
			return nil, fmt.Errorf("run %d: decode models: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(results), &rec.Results); err != nil {
			return nil, fmt.Errorf("run %d: decode results: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return recs, nil
}
