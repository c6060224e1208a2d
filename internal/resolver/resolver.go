// Package resolver locates interactive targets in a UI that has no stable
// addressing scheme.
//
// A Descriptor names a target and lists Strategies in priority order. The
// Resolver evaluates them one by one against the live page and returns the
// first visible match; later strategies are never consulted once one
// succeeds, and matches are never merged or scored. Nothing is cached between
// calls and nothing on the page is touched while resolving.
package resolver

import (
	"context"
	"time"

	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/ui"
)

// Strategy is one locator rule plus an optional post-filter
type Strategy struct {
	Name  string
	Query ui.Query
	// Filter rejects matches that the query alone cannot exclude
	Filter func(ui.Element) bool
}

// Descriptor is a symbolic target with its ordered strategies
type Descriptor struct {
	Name       string
	Strategies []Strategy
}

// Target is a resolved element and the strategy that found it
type Target struct {
	Descriptor string
	Strategy   string
	// Index of the winning strategy in the descriptor
	Index   int
	Element ui.Element
}

// Primary reports whether the first-priority strategy produced the target
func (t Target) Primary() bool {
	return t.Index == 0
}

// CSS builds a strategy from a CSS selector
func CSS(name, expr string) Strategy {
	return Strategy{Name: name, Query: ui.Query{Kind: ui.CSS, Expr: expr}}
}

// XPath builds a strategy from an XPath expression
func XPath(name, expr string) Strategy {
	return Strategy{Name: name, Query: ui.Query{Kind: ui.XPath, Expr: expr}}
}

// Where returns a copy of s with an added post-filter
func (s Strategy) Where(filter func(ui.Element) bool) Strategy {
	s.Filter = filter
	return s
}

// Describe builds a descriptor
func Describe(name string, strategies ...Strategy) Descriptor {
	return Descriptor{Name: name, Strategies: strategies}
}

// Resolver evaluates descriptors against a page
type Resolver struct {
	page ui.Page
	poll time.Duration
}

// Option configures a Resolver
type Option func(*Resolver)

// WithPollInterval sets how often Await re-evaluates a descriptor
func WithPollInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.poll = d
		}
	}
}

// New creates a resolver bound to page
func New(page ui.Page, opts ...Option) *Resolver {
	r := &Resolver{page: page, poll: 250 * time.Millisecond}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve makes a single pass over d's strategies
func (r *Resolver) Resolve(d Descriptor) (Target, error) {
	tried := make([]string, 0, len(d.Strategies))
	for i, s := range d.Strategies {
		tried = append(tried, s.Name)
		if el := r.evaluate(d.Name, s); el != nil {
			logger.Debug("Target resolved", "target", d.Name, "strategy", s.Name, "priority", i)
			return Target{Descriptor: d.Name, Strategy: s.Name, Index: i, Element: el}, nil
		}
	}
	return Target{}, failure.Resolution(d.Name, tried)
}

// Present reports whether d currently resolves
func (r *Resolver) Present(d Descriptor) bool {
	_, err := r.Resolve(d)
	return err == nil
}

// Await re-runs Resolve until it succeeds or timeout elapses. Every pass is
// a fresh evaluation of the full strategy list in order. Expiry is reported
// as a timeout failure, never as a panic.
func (r *Resolver) Await(ctx context.Context, d Descriptor, timeout time.Duration) (Target, error) {
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		t, err := r.Resolve(d)
		if err == nil {
			return t, nil
		}
		if !time.Now().Before(deadline) {
			return Target{}, failure.Timeout(d.Name, strategyNames(d), timeout)
		}

		select {
		case <-ctx.Done():
			return Target{}, failure.Interrupted(d.Name, strategyNames(d), ctx.Err())
		case <-ticker.C:
		}
	}
}

// evaluate returns the first visible element accepted by s, or nil
func (r *Resolver) evaluate(target string, s Strategy) ui.Element {
	matches, err := r.page.Query(s.Query)
	if err != nil {
		logger.Debug("Strategy query failed", "target", target, "strategy", s.Name, "error", err)
		return nil
	}

	for _, el := range matches {
		if s.Filter != nil && !s.Filter(el) {
			continue
		}
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		return el
	}

	logger.Debug("Strategy matched nothing", "target", target, "strategy", s.Name, "candidates", len(matches))
	return nil
}

func strategyNames(d Descriptor) []string {
	names := make([]string, len(d.Strategies))
	for i, s := range d.Strategies {
		names[i] = s.Name
	}
	return names
}
