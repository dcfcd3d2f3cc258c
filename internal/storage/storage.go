package storage

import (
	"context"
	"errors"
	"time"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ErrUnknownBackend is returned when a backend name is not recognized.
var ErrUnknownBackend = errors.New("unknown storage backend")

// RunRecord is the metadata of a single generation run. The draft itself is
// never stored.
type RunRecord struct {
	ID                    string        `json:"id"`
	Keyword               string        `json:"keyword"`
	Trigger               string        `json:"trigger"`
	Status                string        `json:"status"`
	FailureKind           string        `json:"failure_kind,omitempty"`
	Error                 string        `json:"error,omitempty"`
	Model                 string        `json:"model,omitempty"`
	PeopleAlsoAsk         int           `json:"people_also_ask"`
	RelatedSearches       int           `json:"related_searches"`
	CompetitorHeadings    int           `json:"competitor_headings"`
	DraftBytes            int           `json:"draft_bytes"`
	AffiliatePlaceholders int           `json:"affiliate_placeholders"`
	Duration              time.Duration `json:"duration"`
	CreatedAt             time.Time     `json:"created_at"`
}

// Filter allows querying for specific RunRecords.
type Filter struct {
	Keyword string
	Trigger string
	Status  string
	Since   *time.Time
	Limit   int
	Offset  int
}

// Match reports whether r satisfies the filter's predicates. Limit and
// Offset are not considered.
func (f Filter) Match(r *RunRecord) bool {
	if f.Keyword != "" && r.Keyword != f.Keyword {
		return false
	}
	if f.Trigger != "" && r.Trigger != f.Trigger {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page orders records newest first and applies Offset and Limit. It is used
// by backends that filter in memory.
func (f Filter) Page(records []*RunRecord) []*RunRecord {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*RunRecord{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// Backend defines the interface for storing and querying run records.
type Backend interface {
	Save(ctx context.Context, record *RunRecord) error
	Query(ctx context.Context, filter Filter) ([]*RunRecord, error)
	Close() error
}
