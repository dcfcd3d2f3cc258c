// Package scheduler generates a draft for the next keyword of a fixed list
// on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/FranksOps/seoscribe/internal/pipeline"
)

// DefaultInterval is the time between scheduled runs.
const DefaultInterval = 24 * time.Hour

// DefaultKeywords is the rotation used when none is configured.
var DefaultKeywords = []string{
	"best coffee maker for home",
	"how to start a vegetable garden",
	"beginners guide to python programming",
}

// ErrNoKeywords is returned when a cycle is created from an empty list.
var ErrNoKeywords = errors.New("scheduler: keyword list is empty")

// Cycle hands out keywords round-robin. The index only grows; selection is
// index mod len(keywords).
type Cycle struct {
	mu       sync.Mutex
	keywords []string
	index    uint64
}

// NewCycle returns a cycle whose first keyword is keywords[start mod N].
func NewCycle(keywords []string, start int) (*Cycle, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if start < 0 {
		start = 0
	}
	return &Cycle{
		keywords: append([]string(nil), keywords...),
		index:    uint64(start),
	}, nil
}

// Next returns the current keyword and advances by one.
func (c *Cycle) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	kw := c.keywords[c.index%uint64(len(c.keywords))]
	c.index++
	return kw
}

// Index returns how far the cycle has advanced, including the start offset.
func (c *Cycle) Index() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Runner executes one generation.
type Runner interface {
	Run(ctx context.Context, keyword, trigger string) pipeline.Result
}

// Config configures a Scheduler.
type Config struct {
	Interval   time.Duration
	RunOnStart bool
}

// Scheduler fires the runner on a ticker. Runs happen on the scheduler's own
// goroutine, so at most one is in flight and ticks missed meanwhile are
// dropped.
type Scheduler struct {
	cycle  *Cycle
	runner Runner
	cfg    Config
	logger *slog.Logger
}

// New creates a scheduler.
func New(cycle *Cycle, runner Runner, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cycle: cycle, runner: runner, cfg: cfg, logger: logger}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.cfg.Interval, "run_on_start", s.cfg.RunOnStart)

	if s.cfg.RunOnStart {
		s.Fire(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Fire(ctx)
		}
	}
}

// Fire runs the pipeline once for the next keyword. The draft is logged and
// discarded.
func (s *Scheduler) Fire(ctx context.Context) pipeline.Result {
	keyword := s.cycle.Next()
	s.logger.Info("running scheduled generation", "keyword", keyword)

	res := s.runner.Run(ctx, keyword, pipeline.TriggerSchedule)
	if res.OK() {
		s.logger.Info("scheduled post generated", "keyword", keyword, "draft_bytes", len(res.Draft), "title", res.Audit.Title)
		s.logger.Debug("scheduled draft", "keyword", keyword, "draft", res.Draft)
	} else {
		s.logger.Warn("scheduled generation failed", "keyword", keyword, "kind", res.Failure.Kind)
	}
	return res
}
