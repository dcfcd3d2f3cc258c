package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/seoscribe/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	rec := &storage.RunRecord{
		ID:                    "sqlite1",
		Keyword:               "best coffee maker for home",
		Trigger:               "schedule",
		Status:                storage.StatusOK,
		Model:                 "gpt-4o",
		PeopleAlsoAsk:         2,
		RelatedSearches:       3,
		CompetitorHeadings:    6,
		DraftBytes:            5120,
		AffiliatePlaceholders: 3,
		Duration:              8 * time.Second,
		CreatedAt:             now.Add(-2 * time.Hour),
	}
	failed := &storage.RunRecord{
		ID:          "sqlite2",
		Keyword:     "how to start a vegetable garden",
		Trigger:     "web",
		Status:      storage.StatusFailed,
		FailureKind: "search",
		Error:       "serp provider error",
		Duration:    250 * time.Millisecond,
		CreatedAt:   now.Add(-1 * time.Hour),
	}

	for _, r := range []*storage.RunRecord{rec, failed} {
		if err := b.Save(ctx, r); err != nil {
			t.Fatalf("Failed to save %s: %v", r.ID, err)
		}
	}

	results, err := b.Query(ctx, storage.Filter{Keyword: "best coffee maker for home"})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.ID != rec.ID {
		t.Errorf("Expected ID %s, got %s", rec.ID, got.ID)
	}
	if got.Trigger != rec.Trigger {
		t.Errorf("Expected Trigger %s, got %s", rec.Trigger, got.Trigger)
	}
	if got.CompetitorHeadings != rec.CompetitorHeadings || got.PeopleAlsoAsk != rec.PeopleAlsoAsk {
		t.Errorf("Expected counts %+v, got %+v", rec, got)
	}
	if got.Duration.Milliseconds() != rec.Duration.Milliseconds() {
		t.Errorf("Expected Duration %v, got %v", rec.Duration, got.Duration)
	}
	if got.CreatedAt.Unix() != rec.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", rec.CreatedAt, got.CreatedAt)
	}

	past := now.Add(-90 * time.Minute)
	since, err := b.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query results with Since: %v", err)
	}
	if len(since) != 1 || since[0].ID != "sqlite2" {
		t.Fatalf("Expected sqlite2 for Since filter, got %d results", len(since))
	}

	byStatus, err := b.Query(ctx, storage.Filter{Status: storage.StatusFailed})
	if err != nil {
		t.Fatalf("Failed to query by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].FailureKind != "search" {
		t.Fatalf("Expected the failed run, got %d results", len(byStatus))
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 2 || all[0].ID != "sqlite2" {
		t.Fatalf("Expected newest first, got %d results", len(all))
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query with offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != "sqlite1" {
		t.Fatalf("Expected sqlite1 at offset 1, got %d results", len(offset))
	}
}
