// Package session carries the explicit context value every community
// operation runs against: the live page, the resolver and pacer bound to it,
// and the bounded waits. The batch orchestrator owns the single Context and
// passes it down; nothing reaches for a global browser handle.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/resolver"
	"github.com/yourusername/community-manager/internal/stealth"
	"github.com/yourusername/community-manager/internal/ui"
	"github.com/yourusername/community-manager/internal/whatsapp"
)

// Mode says whether the run reuses a logged-in browser profile
type Mode int

const (
	Cached Mode = iota
	Fresh
)

func (m Mode) String() string {
	if m == Fresh {
		return "fresh"
	}
	return "cached"
}

// Timeouts bounds every polling wait
type Timeouts struct {
	// Step is the wait for a target to appear before acting on it
	Step time.Duration
	// Verify is the wait for a post-condition after an activation
	Verify time.Duration
	// Load is the wait for a cached session to show the chat list
	Load time.Duration
	// Login is the wait for a QR scan in fresh mode
	Login time.Duration
}

// DefaultTimeouts mirror how long the client usually takes to react
var DefaultTimeouts = Timeouts{
	Step:   10 * time.Second,
	Verify: 5 * time.Second,
	Load:   30 * time.Second,
	Login:  90 * time.Second,
}

// Context is the session value threaded through locator and state machines
type Context struct {
	Page     ui.Page
	Resolver *resolver.Resolver
	Pacer    *stealth.Pacer
	Mode     Mode
	Timeouts Timeouts
	Phones   records.PhoneRule
	// SnapshotDir receives failure screenshots. Empty disables them.
	SnapshotDir string
}

// New builds a Context with default timeouts and phone rule
func New(page ui.Page, res *resolver.Resolver, pacer *stealth.Pacer) *Context {
	return &Context{
		Page:     page,
		Resolver: res,
		Pacer:    pacer,
		Timeouts: DefaultTimeouts,
		Phones:   records.DefaultPhoneRule,
	}
}

// Await waits up to the step timeout for d to resolve
func (s *Context) Await(ctx context.Context, d resolver.Descriptor) (resolver.Target, error) {
	return s.Resolver.Await(ctx, d, s.Timeouts.Step)
}

// Fill replaces the content of a text field: click, select all, delete,
// then type with human cadence. A plain clear leaves residual state in the
// client's editors.
func (s *Context) Fill(ctx context.Context, el ui.Element, text string) error {
	if err := el.Click(); err != nil {
		return fmt.Errorf("failed to focus field: %w", err)
	}
	s.Pacer.Delay(ctx, 300*time.Millisecond, 700*time.Millisecond)

	if err := s.Page.SelectAll(); err != nil {
		return fmt.Errorf("failed to select field content: %w", err)
	}
	if err := s.Page.Press(ui.KeyDelete); err != nil {
		return fmt.Errorf("failed to clear field: %w", err)
	}
	s.Pacer.Delay(ctx, 300*time.Millisecond, 700*time.Millisecond)

	return s.Pacer.TypeText(ctx, el, text)
}

// ResetUI closes whatever drawer, dialog or menu is open. It is best effort:
// every error is logged and dropped.
func (s *Context) ResetUI(ctx context.Context) {
	logger.Debug("Resetting UI")

	for i := 0; i < 3; i++ {
		if err := s.Page.Press(ui.KeyEscape); err != nil {
			logger.Debug("Escape press failed during reset", "error", err)
		}
		s.Pacer.Pause(ctx, 500*time.Millisecond)
	}

	closed := 0
	for _, st := range whatsapp.CloseButtons().Strategies {
		matches, err := s.Page.Query(st.Query)
		if err != nil {
			continue
		}
		for _, el := range matches {
			if visible, err := el.Visible(); err != nil || !visible {
				continue
			}
			if err := el.Click(); err != nil {
				logger.Debug("Close button click failed during reset", "error", err)
				continue
			}
			closed++
			s.Pacer.Pause(ctx, 500*time.Millisecond)
		}
	}

	s.Pacer.Pause(ctx, time.Second)
	logger.Debug("UI reset finished", "closed", closed)
}

// Snapshot saves a screenshot named after label and returns its path, or ""
// when snapshots are disabled or the capture failed
func (s *Context) Snapshot(label string) string {
	if s.SnapshotDir == "" {
		return ""
	}
	if err := os.MkdirAll(s.SnapshotDir, 0755); err != nil {
		logger.Warn("Failed to create snapshot directory", "dir", s.SnapshotDir, "error", err)
		return ""
	}

	name := fmt.Sprintf("%s_%s.png", sanitizeLabel(label), time.Now().Format("20060102_150405"))
	path := filepath.Join(s.SnapshotDir, name)
	if err := s.Page.Screenshot(path); err != nil {
		logger.Warn("Failed to capture snapshot", "path", path, "error", err)
		return ""
	}

	logger.Info("Saved failure snapshot", "path", path)
	return path
}

func sanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, label)
}
