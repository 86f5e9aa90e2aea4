package store

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/chatcompare/internal/run"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(i int) *run.Record {
	return &run.Record{
		RunUUID:          fmt.Sprintf("run-%02d", i),
		CreatedAt:        time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
		SystemPrompt:     "You are terse.",
		UserPrompt:       fmt.Sprintf("question %d", i),
		Models:           []string{"gpt-4", "claude-sonnet-4-5"},
		Temperature:      0.7,
		TopP:             1,
		MaxTokens:        256,
		FrequencyPenalty: 0,
		PresencePenalty:  0.5,
		Results: run.Results{
			{Model: "gpt-4", Outcome: run.Succeeded(fmt.Sprintf("answer %d", i), 0, 0, 0)},
			{Model: "claude-sonnet-4-5", Outcome: run.Failed("rate limited")},
		},
		PromptTokens:     100,
		CompletionTokens: 50,
		Cost:             0.006,
	}
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil database handle")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{runsTableName, callsTableName} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table name = %q, want %q", name, table)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Save(ctx, testRecord(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	recs, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(recs))
	}
}

func TestSaveAssignsIncreasingIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 3; i++ {
		id, err := s.Save(ctx, testRecord(i))
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		last = id
	}
}

func TestListRecentNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 25; i++ {
		id, err := s.Save(ctx, testRecord(i))
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	recs, err := s.ListRecent(ctx, 20)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recs) != 20 {
		t.Fatalf("expected 20 records, got %d", len(recs))
	}
	for i, rec := range recs {
		want := ids[len(ids)-1-i]
		if rec.ID != want {
			t.Errorf("recs[%d].ID = %d, want %d", i, rec.ID, want)
		}
	}
}

func TestListRecentLimits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	recs, err := s.ListRecent(ctx, 5)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}

	for i := 0; i < 22; i++ {
		if _, err := s.Save(ctx, testRecord(i)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	recs, err = s.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list default: %v", err)
	}
	if len(recs) != defaultListLimit {
		t.Errorf("default limit returned %d records, want %d", len(recs), defaultListLimit)
	}

	recs, err = s.ListRecent(ctx, 100)
	if err != nil {
		t.Fatalf("list large: %v", err)
	}
	if len(recs) != 22 {
		t.Errorf("expected all 22 records, got %d", len(recs))
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := testRecord(7)
	want.CreatedAt = time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	want.Models = []string{"zeta,with,commas", "gpt-4"}
	want.Results = run.Results{
		{Model: "zeta,with,commas", Outcome: run.Failed("boom")},
		{Model: "gpt-4", Outcome: run.Succeeded("multi\nline \"quoted\"", 0, 0, 0)},
	}

	id, err := s.Save(ctx, want)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want.ID = id

	recs, err := s.ListRecent(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if !reflect.DeepEqual(recs[0], *want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", recs[0], *want)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || !reflect.DeepEqual(*got, *want) {
		t.Errorf("get mismatch: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestConcurrentSavesGetUniqueIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.Save(ctx, testRecord(i))
			if err != nil {
				t.Errorf("save %d: %v", i, err)
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != n {
		t.Fatalf("expected %d unique ids, got %d", n, len(ids))
	}
}

func TestSaveAfterCloseFails(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()

	if _, err := s.Save(context.Background(), testRecord(1)); err == nil {
		t.Fatal("expected error saving to a closed store")
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("CHATCOMPARE_DB", filepath.Join(dir, "custom", "my.db"))
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if p != filepath.Join(dir, "custom", "my.db") {
		t.Errorf("path = %q, want env override", p)
	}

	t.Setenv("CHATCOMPARE_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if p != filepath.Join(dir, "chatcompare", "runs.db") {
		t.Errorf("path = %q, want XDG location", p)
	}
}
