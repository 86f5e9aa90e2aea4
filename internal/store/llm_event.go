package store

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/abhisek/chatcompare/internal/llm"
)

var callSelectColumns = []string{
	"id", "run_uuid", "provider", "model", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "timestamp",
}

// AppendCall records a model call. It satisfies llm.EventSink.
func (s *Store) AppendCall(ctx context.Context, ev llm.CallEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := sql.Dialect(dialect.SQLite).
		Insert(callsTableName).
		Columns(callSelectColumns[1:]...).
		Values(
			ev.RunID, ev.Provider, ev.Model, ev.InputTokens, ev.OutputTokens,
			ev.LatencyMs, ev.Success, ev.ErrorMessage, ts.UTC(),
		).
		Query()

	var res stdsql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("save model call event: %w", err)
	}
	return nil
}

// QueryCalls returns call events newest first.
func (s *Store) QueryCalls(ctx context.Context, opts QueryOpts) ([]CallRecord, error) {
	sel := sql.Dialect(dialect.SQLite).
		Select(callSelectColumns...).
		From(sql.Table(callsTableName)).
		OrderBy(sql.Desc("id"))

	var preds []*sql.Predicate
	if opts.RunUUID != "" {
		preds = append(preds, sql.EQ("run_uuid", opts.RunUUID))
	}
	if opts.Model != "" {
		preds = append(preds, sql.EQ("model", opts.Model))
	}
	if !opts.From.IsZero() {
		preds = append(preds, sql.GTE("timestamp", opts.From.UTC()))
	}
	if len(preds) > 0 {
		sel.Where(sql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	return s.queryCalls(ctx, query, args)
}

// GetCall returns the call event with the given id, or nil if there is none.
func (s *Store) GetCall(ctx context.Context, id int64) (*CallRecord, error) {
	query, args := sql.Dialect(dialect.SQLite).
		Select(callSelectColumns...).
		From(sql.Table(callsTableName)).
		Where(sql.EQ("id", id)).
		Query()

	calls, err := s.queryCalls(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, nil
	}
	return &calls[0], nil
}

// UsageByModel aggregates call events per model, busiest first.
func (s *Store) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := sql.Dialect(dialect.SQLite).
		Select(
			"model",
			sql.As(sql.Count("*"), "calls"),
			sql.As("SUM(CASE WHEN success THEN 0 ELSE 1 END)", "failures"),
			sql.As(sql.Sum("input_tokens"), "input_tokens"),
			sql.As(sql.Sum("output_tokens"), "output_tokens"),
			sql.As("CAST(AVG(latency_ms) AS INTEGER)", "avg_latency_ms"),
		).
		From(sql.Table(callsTableName)).
		GroupBy("model").
		OrderBy(sql.Desc("calls"), "model").
		Query()

	rows := &sql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query model usage: %w", err)
	}
	defer rows.Close()

	var usage []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.Failures, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model usage: %w", err)
	}
	return usage, nil
}

func (s *Store) queryCalls(ctx context.Context, query string, args []any) ([]CallRecord, error) {
	rows := &sql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query model calls: %w", err)
	}
	defer rows.Close()

	var calls []CallRecord
	for rows.Next() {
		var (
			c  CallRecord
			ts time.Time
		)
		err := rows.Scan(
			&c.ID, &c.RunID, &c.Provider, &c.Model, &c.InputTokens, &c.OutputTokens,
			&c.LatencyMs, &c.Success, &c.ErrorMessage, &ts,
		)
		if err != nil {
			return nil, fmt.Errorf("scan model call: %w", err)
		}
		c.Timestamp = ts.UTC()
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model calls: %w", err)
	}
	return calls, nil
}
