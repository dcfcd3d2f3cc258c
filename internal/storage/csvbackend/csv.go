package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/seoscribe/internal/storage"
)

var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// columns defines the CSV column order.
var columns = []string{
	"id",
	"keyword",
	"trigger",
	"status",
	"failure_kind",
	"error",
	"model",
	"people_also_ask",
	"related_searches",
	"competitor_headings",
	"draft_bytes",
	"affiliate_placeholders",
	"duration_ms",
	"created_at",
}

// New creates a new CSV-backed storage.Backend. A header row is written to
// empty files.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening run log %s: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat run log %s: %w", filePath, err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, r *storage.RunRecord) error {
	row := []string{
		r.ID,
		r.Keyword,
		r.Trigger,
		r.Status,
		r.FailureKind,
		r.Error,
		r.Model,
		strconv.Itoa(r.PeopleAlsoAsk),
		strconv.Itoa(r.RelatedSearches),
		strconv.Itoa(r.CompetitorHeadings),
		strconv.Itoa(r.DraftBytes),
		strconv.Itoa(r.AffiliatePlaceholders),
		strconv.FormatInt(r.Duration.Milliseconds(), 10),
		r.CreatedAt.Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seeking run log: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("writing run %s: %w", r.ID, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing run %s: %w", r.ID, err)
	}
	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding run log: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	cr := csv.NewReader(b.file)
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []*storage.RunRecord{}, nil
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var matched []*storage.RunRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading run log: %w", err)
		}
		if len(row) != len(columns) {
			continue // malformed
		}

		r := parseRow(row)
		if filter.Match(r) {
			matched = append(matched, r)
		}
	}

	return filter.Page(matched), nil
}

func parseRow(row []string) *storage.RunRecord {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	durationMs, _ := strconv.ParseInt(row[12], 10, 64)
	createdAt, _ := time.Parse(time.RFC3339Nano, row[13])

	return &storage.RunRecord{
		ID:                    row[0],
		Keyword:               row[1],
		Trigger:               row[2],
		Status:                row[3],
		FailureKind:           row[4],
		Error:                 row[5],
		Model:                 row[6],
		PeopleAlsoAsk:         atoi(row[7]),
		RelatedSearches:       atoi(row[8]),
		CompetitorHeadings:    atoi(row[9]),
		DraftBytes:            atoi(row[10]),
		AffiliatePlaceholders: atoi(row[11]),
		Duration:              time.Duration(durationMs) * time.Millisecond,
		CreatedAt:             createdAt,
	}
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
