// Package batch runs the membership operations over a list of records, in
// order, one at a time against the single browser session.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/community-manager/internal/community"
	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/membership"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/session"
	"github.com/yourusername/community-manager/internal/stealth"
)

// Locator opens a community and its details drawer
type Locator interface {
	Open(ctx context.Context, name string) error
}

// Operation is one membership state machine
type Operation interface {
	Run(ctx context.Context, community string, phone records.Phone) membership.Outcome
}

// Resetter closes whatever the previous operation left open
type Resetter interface {
	ResetUI(ctx context.Context)
}

// Recorder persists outcomes as they are produced
type Recorder interface {
	Record(ctx context.Context, index int, o membership.Outcome) error
}

// Pacing holds the waits the orchestrator inserts itself
type Pacing struct {
	MinContact time.Duration
	MaxContact time.Duration
	// Phase is the fixed wait between the add and remove phases of a record
	Phase time.Duration
}

// DefaultPacing waits 5 to 10 seconds between records and 15 between phases
var DefaultPacing = Pacing{
	MinContact: 5 * time.Second,
	MaxContact: 10 * time.Second,
	Phase:      15 * time.Second,
}

// Stats counts outcomes of one batch run. Counters only ever grow.
type Stats struct {
	AddsSucceeded    int
	AddsFailed       int
	RemovesSucceeded int
	RemovesFailed    int
}

// Record counts one outcome
func (s *Stats) Record(o membership.Outcome) {
	switch {
	case o.Kind == membership.Add && o.Succeeded():
		s.AddsSucceeded++
	case o.Kind == membership.Add:
		s.AddsFailed++
	case o.Succeeded():
		s.RemovesSucceeded++
	default:
		s.RemovesFailed++
	}
}

// Total is the number of operations attempted
func (s Stats) Total() int {
	return s.AddsSucceeded + s.AddsFailed + s.RemovesSucceeded + s.RemovesFailed
}

// Orchestrator owns the session context for the duration of a batch
type Orchestrator struct {
	locator  Locator
	adder    Operation
	remover  Operation
	resetter Resetter
	pacer    *stealth.Pacer
	phones   records.PhoneRule
	pacing   Pacing
	recorder Recorder
	ready    func(ctx context.Context) error
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPacing overrides the inter-record and inter-phase waits
func WithPacing(p Pacing) Option {
	return func(o *Orchestrator) { o.pacing = p }
}

// WithRecorder persists every outcome
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithReadyCheck sets the precondition checked once before any record. Its
// failure aborts the run.
func WithReadyCheck(check func(ctx context.Context) error) Option {
	return func(o *Orchestrator) { o.ready = check }
}

// WithLocator replaces the community locator
func WithLocator(l Locator) Option {
	return func(o *Orchestrator) { o.locator = l }
}

// WithOperations replaces the add and remove state machines
func WithOperations(add, remove Operation) Option {
	return func(o *Orchestrator) {
		o.adder = add
		o.remover = remove
	}
}

// New creates an Orchestrator wired to the real locator and state machines
func New(sess *session.Context, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		locator:  community.NewLocator(sess),
		adder:    membership.NewAdder(sess),
		remover:  membership.NewRemover(sess),
		resetter: sess,
		pacer:    sess.Pacer,
		phones:   sess.Phones,
		pacing:   DefaultPacing,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes the head of recs allowed by limit. Failed operations are
// counted and the batch moves on; only a failed ready check or a cancelled
// ctx ends the run early.
func (o *Orchestrator) Run(ctx context.Context, recs []records.Record, limit records.Limit) (Stats, error) {
	var stats Stats

	if o.ready != nil {
		if err := o.ready(ctx); err != nil {
			if !failure.IsFatal(err) {
				err = failure.Session(err)
			}
			return stats, err
		}
	}

	todo := limit.Apply(recs)
	logger.Info("Starting batch", "records", len(recs), "processing", len(todo), "limit", limit.String())

	for i, rec := range todo {
		if err := ctx.Err(); err != nil {
			return stats, o.interrupted(stats, i, err)
		}
		logger.Info("Processing record", "record", i+1, "of", len(todo))

		if pair, ok := rec.AddPair(); ok {
			out := o.process(ctx, membership.Add, o.adder, pair)
			if err := o.finish(ctx, &stats, i, out); err != nil {
				return stats, err
			}

			logger.Info("Waiting before the next phase", "duration", o.pacing.Phase)
			o.pacer.Pause(ctx, o.pacing.Phase)
			if err := ctx.Err(); err != nil {
				return stats, o.interrupted(stats, i, err)
			}
		}

		if pair, ok := rec.RemovePair(); ok {
			out := o.process(ctx, membership.Remove, o.remover, pair)
			if err := o.finish(ctx, &stats, i, out); err != nil {
				return stats, err
			}
		}

		if i < len(todo)-1 {
			d := o.pacer.Delay(ctx, o.pacing.MinContact, o.pacing.MaxContact)
			logger.Debug("Waited between records", "duration", d)
		}
	}

	o.logSummary(stats)
	return stats, nil
}

// finish counts out and resets the UI. Once ctx has ended it returns the
// interruption, and an outcome that failed only because of it is not counted.
func (o *Orchestrator) finish(ctx context.Context, stats *Stats, index int, out membership.Outcome) error {
	cause := ctx.Err()
	if cause != nil && !out.Succeeded() && errors.Is(out.Err, cause) {
		logger.Warn("Operation cut short by interrupt, not counted", "operation", out.Kind.String(),
			"community", out.Community, "step", string(out.FailingStep))
	} else {
		o.record(ctx, stats, index, out)
	}

	o.resetter.ResetUI(ctx)

	if cause != nil {
		return o.interrupted(*stats, index, cause)
	}
	return nil
}

func (o *Orchestrator) interrupted(stats Stats, index int, cause error) error {
	logger.Warn("Batch interrupted", "record", index+1)
	o.logSummary(stats)
	return fmt.Errorf("batch interrupted: %w", cause)
}

func (o *Orchestrator) process(ctx context.Context, kind membership.Kind, op Operation, pair records.Pair) membership.Outcome {
	logger.Info("Starting operation", "operation", kind.String(), "community", pair.Community, "phone", pair.Phone)

	phone, err := o.phones.Normalize(pair.Phone)
	if err != nil {
		return membership.Rejected(kind, pair.Community, "", membership.PhoneNormalized, err)
	}
	if err := o.locator.Open(ctx, pair.Community); err != nil {
		return membership.Rejected(kind, pair.Community, phone, membership.CommunityOpened, err)
	}
	return op.Run(ctx, pair.Community, phone)
}

func (o *Orchestrator) record(ctx context.Context, stats *Stats, index int, out membership.Outcome) {
	stats.Record(out)

	if out.Succeeded() {
		logger.Info("Operation succeeded", "operation", out.Kind.String(), "community", out.Community, "phone", string(out.Target))
	} else {
		logger.Warn("Operation failed", "operation", out.Kind.String(), "community", out.Community,
			"phone", string(out.Target), "step", string(out.FailingStep), "error", out.Err)
	}

	if o.recorder != nil {
		if err := o.recorder.Record(ctx, index, out); err != nil {
			logger.Warn("Failed to record outcome", "error", err)
		}
	}
}

func (o *Orchestrator) logSummary(s Stats) {
	logger.Info("Batch statistics",
		"adds_succeeded", s.AddsSucceeded,
		"adds_failed", s.AddsFailed,
		"removes_succeeded", s.RemovesSucceeded,
		"removes_failed", s.RemovesFailed,
		"total_processed", s.Total(),
	)
}
