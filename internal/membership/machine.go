// Package membership implements the two per-record operations, adding and
// removing a community member, as linear step pipelines. Each step resolves
// one target, acts on it and lets the UI settle. The first failing step ends
// the run; there are no retries at this level. Whatever happens, the UI is
// reset before the Outcome is returned.
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/resolver"
	"github.com/yourusername/community-manager/internal/session"
)

// Kind is the operation an Outcome belongs to
type Kind int

const (
	Add Kind = iota
	Remove
)

func (k Kind) String() string {
	if k == Remove {
		return "remove"
	}
	return "add"
}

// StepID names a state of the pipelines
type StepID string

const (
	Idle                   StepID = "Idle"
	PhoneNormalized        StepID = "PhoneNormalized"
	CommunityOpened        StepID = "CommunityOpened"
	CommunityTabOpened     StepID = "CommunityTabOpened"
	AddMembersDialogOpened StepID = "AddMembersDialogOpened"
	NumberEntered          StepID = "NumberEntered"
	NumberConfirmed        StepID = "NumberConfirmed"
	MemberAdded            StepID = "MemberAdded"
	MemberSearchOpened     StepID = "MemberSearchOpened"
	ContactSelected        StepID = "ContactSelected"
	RemoveOptionSelected   StepID = "RemoveOptionSelected"
	RemoveConfirmed        StepID = "RemoveConfirmed"
	Closed                 StepID = "Closed"
)

// Result is the terminal state of an operation
type Result int

const (
	Success Result = iota
	Failure
)

func (r Result) String() string {
	if r == Failure {
		return "failure"
	}
	return "success"
}

// Outcome is produced exactly once per attempted operation
type Outcome struct {
	Kind      Kind
	Community string
	Target    records.Phone
	Result    Result
	// FailingStep is the step that did not complete. Empty on success.
	FailingStep StepID
	Err         error
	// Trail lists the steps that completed, in order
	Trail []StepID
	// Snapshot is the screenshot taken on failure, if any
	Snapshot string
}

// Succeeded reports whether the operation reached Closed
func (o Outcome) Succeeded() bool {
	return o.Result == Success
}

// Rejected is the Outcome of an operation that failed before its pipeline
// started, such as an unusable phone number or a community that would not open
func Rejected(kind Kind, community string, phone records.Phone, step StepID, err error) Outcome {
	return Outcome{
		Kind:        kind,
		Community:   community,
		Target:      phone,
		Result:      Failure,
		FailingStep: step,
		Err:         err,
	}
}

type step struct {
	id  StepID
	run func(ctx context.Context) error
}

// machine runs a step pipeline against one session
type machine struct {
	kind Kind
	sess *session.Context
}

func (m *machine) run(ctx context.Context, community string, phone records.Phone, steps []step) Outcome {
	o := Outcome{Kind: m.kind, Community: community, Target: phone}
	log := logger.With("operation", m.kind.String(), "community", community, "phone", string(phone))

	for _, s := range steps {
		log.Infow("Step started", "step", s.id)
		if err := s.run(ctx); err != nil {
			o.Result = Failure
			o.FailingStep = s.id
			o.Err = err
			log.Warnw("Step failed", "step", s.id, "error", err)

			o.Snapshot = m.sess.Snapshot(fmt.Sprintf("%s_%s_%s", m.kind, s.id, phone))
			m.sess.ResetUI(ctx)
			return o
		}
		o.Trail = append(o.Trail, s.id)
	}

	o.Result = Success
	o.Trail = append(o.Trail, Closed)
	log.Infow("Operation completed")
	m.sess.ResetUI(ctx)
	return o
}

// click resolves d, clicks it and waits between min and max
func (m *machine) click(ctx context.Context, d resolver.Descriptor, min, max time.Duration) error {
	target, err := m.sess.Await(ctx, d)
	if err != nil {
		return err
	}
	if err := target.Element.Click(); err != nil {
		return failure.Action(target.Descriptor, err)
	}
	m.sess.Pacer.Delay(ctx, min, max)
	return nil
}

// press resolves d and activates it, falling back to a script click when the
// pointer click is rejected. Used on dialog buttons that are often covered
// by an overlay for a moment.
func (m *machine) press(ctx context.Context, d resolver.Descriptor) error {
	target, err := m.sess.Await(ctx, d)
	if err != nil {
		return err
	}
	if err := target.Element.Click(); err != nil {
		logger.Info("Click rejected, using script click", "target", target.Descriptor, "error", err)
		if err := target.Element.ActivateScript(); err != nil {
			return failure.Action(target.Descriptor, err)
		}
	}
	m.sess.Pacer.Delay(ctx, 2*time.Second, 3*time.Second)
	return nil
}

// fill resolves the text field d and replaces its content with text
func (m *machine) fill(ctx context.Context, d resolver.Descriptor, text string) error {
	target, err := m.sess.Await(ctx, d)
	if err != nil {
		return err
	}
	if err := m.sess.Fill(ctx, target.Element, text); err != nil {
		return failure.Action(target.Descriptor, err)
	}
	logger.Debug("Field filled", "target", target.Descriptor, "strategy", target.Strategy)
	return nil
}
