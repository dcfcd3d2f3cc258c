// Package pipeline turns a keyword into a blog post draft: research, prompt,
// generation. Every outcome is returned as a Result; Run never returns an
// error or lets a panic escape.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/seoscribe/internal/analyzer"
	"github.com/FranksOps/seoscribe/internal/metrics"
	"github.com/FranksOps/seoscribe/internal/prompt"
	"github.com/FranksOps/seoscribe/internal/research"
	"github.com/FranksOps/seoscribe/internal/storage"
)

// Triggers identify who asked for a run.
const (
	TriggerWeb      = "web"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

// FailureKind classifies why a run failed.
type FailureKind string

const (
	// FailureSearch covers search provider transport, status and decode errors.
	FailureSearch FailureKind = "search"
	// FailureGeneration covers model transport, auth, rate limit and empty completions.
	FailureGeneration FailureKind = "generation"
	FailureCanceled   FailureKind = "canceled"
	FailureInternal   FailureKind = "internal"
)

// Failure is the failed arm of a Result.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s failure: %v", f.Kind, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

// Result is the outcome of one run. Exactly one of Draft and Failure is set.
type Result struct {
	RunID    string
	Keyword  string
	Trigger  string
	Draft    string
	Failure  *Failure
	Research research.Payload
	Audit    analyzer.Audit
	Duration time.Duration
}

// OK reports whether the run produced a draft.
func (r Result) OK() bool { return r.Failure == nil }

// Researcher gathers search signals for a keyword.
type Researcher interface {
	Research(ctx context.Context, keyword string) (research.Payload, error)
}

// Generator turns a prompt into a draft.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// saveTimeout bounds the run log write, which outlives a canceled request.
const saveTimeout = 5 * time.Second

// Pipeline is stateless per call and safe for concurrent use.
type Pipeline struct {
	researcher Researcher
	generator  Generator
	runs       storage.Backend
	model      string
	logger     *slog.Logger
}

// New wires a pipeline. runs may be nil to disable the run log.
func New(researcher Researcher, generator Generator, runs storage.Backend, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		researcher: researcher,
		generator:  generator,
		runs:       runs,
		logger:     logger,
	}
	if m, ok := generator.(interface{ Model() string }); ok {
		p.model = m.Model()
	}
	return p
}

// Run researches keyword, builds the prompt and generates a draft.
func (p *Pipeline) Run(ctx context.Context, keyword, trigger string) (res Result) {
	start := time.Now()
	res = Result{
		RunID:   uuid.NewString(),
		Keyword: keyword,
		Trigger: trigger,
	}
	logger := p.logger.With("run_id", res.RunID, "keyword", keyword, "trigger", trigger)

	// Deferred in reverse: the stage recover settles res before finish sees it.
	defer func() {
		res.Duration = time.Since(start)
		p.finish(ctx, logger, res)
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panicked", "panic", r, "stack", string(debug.Stack()))
			res.Draft = ""
			res.Failure = &Failure{Kind: FailureInternal, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	logger.Info("starting generation")

	stage := time.Now()
	payload, err := p.researcher.Research(ctx, keyword)
	metrics.ObserveStage("research", time.Since(stage))
	if err != nil {
		res.Failure = classify(ctx, err, FailureSearch)
		return res
	}
	res.Research = payload

	userPrompt := prompt.Build(keyword, payload)

	stage = time.Now()
	draft, err := p.generator.Generate(ctx, userPrompt)
	metrics.ObserveStage("generate", time.Since(stage))
	if err != nil {
		res.Failure = classify(ctx, err, FailureGeneration)
		return res
	}

	res.Draft = draft
	res.Audit = analyzer.AuditDraft(draft, keyword, payload)
	return res
}

// classify tags err with kind unless the caller's context ended, which
// takes precedence over the stage that noticed it.
func classify(ctx context.Context, err error, kind FailureKind) *Failure {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		kind = FailureCanceled
	}
	return &Failure{Kind: kind, Err: err}
}

// finish logs, counts and records a completed run. The result is already
// settled, so a panic here is logged and dropped.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recording run panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	outcome := storage.StatusOK
	if res.Failure != nil {
		outcome = string(res.Failure.Kind)
		logger.Error("generation failed", "kind", res.Failure.Kind, "err", res.Failure.Err, "duration", res.Duration)
	} else {
		logger.Info("generation finished",
			"duration", res.Duration,
			"draft_bytes", len(res.Draft),
			"competitor_headings", len(res.Research.CompetitorHeadings),
			"affiliate_placeholders", res.Audit.AffiliatePlaceholders)
	}
	metrics.RecordRun(res.Trigger, outcome)

	if p.runs == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := p.runs.Save(saveCtx, Record(res, p.model)); err != nil {
		logger.Warn("saving run record failed", "err", err)
	}
}

// Record converts a result into its run log entry. The draft text is not
// included.
func Record(res Result, model string) *storage.RunRecord {
	r := &storage.RunRecord{
		ID:                    res.RunID,
		Keyword:               res.Keyword,
		Trigger:               res.Trigger,
		Status:                storage.StatusOK,
		Model:                 model,
		PeopleAlsoAsk:         len(res.Research.PeopleAlsoAsk),
		RelatedSearches:       len(res.Research.RelatedSearches),
		CompetitorHeadings:    len(res.Research.CompetitorHeadings),
		DraftBytes:            len(res.Draft),
		AffiliatePlaceholders: res.Audit.AffiliatePlaceholders,
		Duration:              res.Duration,
		CreatedAt:             time.Now().UTC(),
	}
	if res.Failure != nil {
		r.Status = storage.StatusFailed
		r.FailureKind = string(res.Failure.Kind)
		r.Error = res.Failure.Err.Error()
	}
	return r
}
