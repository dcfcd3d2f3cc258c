package jsonbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/seoscribe/internal/storage"
)

func TestJSONBackend(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "runs.jsonl")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond).UTC()

	rec1 := &storage.RunRecord{
		ID:                    "json1",
		Keyword:               "best coffee maker for home",
		Trigger:               "schedule",
		Status:                storage.StatusOK,
		Model:                 "gpt-4o",
		PeopleAlsoAsk:         2,
		RelatedSearches:       3,
		CompetitorHeadings:    6,
		DraftBytes:            4096,
		AffiliatePlaceholders: 3,
		Duration:              12 * time.Second,
		CreatedAt:             now.Add(-2 * time.Hour),
	}
	rec2 := &storage.RunRecord{
		ID:          "json2",
		Keyword:     "how to start a vegetable garden",
		Trigger:     "web",
		Status:      storage.StatusFailed,
		FailureKind: "search",
		Error:       "serp provider error: status 401",
		Duration:    300 * time.Millisecond,
		CreatedAt:   now.Add(-1 * time.Hour),
	}

	if err := b.Save(ctx, rec1); err != nil {
		t.Fatalf("Failed to save record 1: %v", err)
	}
	if err := b.Save(ctx, rec2); err != nil {
		t.Fatalf("Failed to save record 2: %v", err)
	}

	byKeyword, err := b.Query(ctx, storage.Filter{Keyword: "best coffee maker for home"})
	if err != nil {
		t.Fatalf("Failed to query by keyword: %v", err)
	}
	if len(byKeyword) != 1 {
		t.Fatalf("Expected 1 result for keyword filter, got %d", len(byKeyword))
	}
	got := byKeyword[0]
	if got.ID != "json1" || got.CompetitorHeadings != 6 || got.Duration != 12*time.Second || !got.CreatedAt.Equal(rec1.CreatedAt) {
		t.Errorf("unexpected round trip: %+v", got)
	}

	failed, err := b.Query(ctx, storage.Filter{Status: storage.StatusFailed})
	if err != nil {
		t.Fatalf("Failed to query by status: %v", err)
	}
	if len(failed) != 1 || failed[0].FailureKind != "search" {
		t.Fatalf("Expected the failed run, got %+v", failed)
	}

	past := now.Add(-90 * time.Minute)
	since, err := b.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query by Since: %v", err)
	}
	if len(since) != 1 || since[0].ID != "json2" {
		t.Fatalf("Expected json2 for Since filter, got %d results", len(since))
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(all))
	}
	if all[0].ID != "json2" {
		t.Errorf("Expected json2 first, got %s", all[0].ID)
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != "json1" {
		t.Errorf("Expected json1 for offset 1, got %d results", len(offset))
	}

	// Writes after a query still append.
	rec3 := &storage.RunRecord{ID: "json3", Keyword: "k", Status: storage.StatusOK, CreatedAt: now}
	if err := b.Save(ctx, rec3); err != nil {
		t.Fatalf("Failed to save record 3: %v", err)
	}
	all, err = b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 3 || all[0].ID != "json3" {
		t.Errorf("Expected json3 newest of 3, got %d results", len(all))
	}
}
