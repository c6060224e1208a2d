// Package community opens a named community conversation and its details
// drawer, which is where both membership operations start.
package community

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/resolver"
	"github.com/yourusername/community-manager/internal/session"
	"github.com/yourusername/community-manager/internal/ui"
	"github.com/yourusername/community-manager/internal/whatsapp"
)

// ErrNotFound means the search produced no usable result for the name
var ErrNotFound = errors.New("community not found")

const (
	// activationSettle is how long the client gets to open a chat after a click
	activationSettle = 3 * time.Second
	// enterSettle is the wait after submitting the search with Enter
	enterSettle = 2 * time.Second
)

// Locator opens communities through the chat-list search
type Locator struct {
	sess *session.Context
}

// NewLocator creates a Locator bound to a session
func NewLocator(sess *session.Context) *Locator {
	return &Locator{sess: sess}
}

type activation struct {
	name string
	do   func(ui.Element) error
}

// activations are tried in order until the conversation opens. A double
// click is the most reliable on chat rows.
var activations = []activation{
	{"double-click", ui.Element.DoubleClick},
	{"click", ui.Element.Click},
	{"script-click", ui.Element.ActivateScript},
}

// Open searches for name, opens the matching conversation and then its
// details drawer. Any error means nothing usable is open; callers must not
// continue the operation.
func (l *Locator) Open(ctx context.Context, name string) error {
	query := SanitizeName(name)
	if query == "" {
		return fmt.Errorf("%w: %q has no searchable characters", ErrNotFound, name)
	}
	if query != name {
		logger.Warn("Community name has unsupported characters, searching cleaned name", "name", name, "query", query)
	}
	logger.Info("Searching for community", "name", query)

	search, err := l.sess.Await(ctx, whatsapp.ChatSearch())
	if err != nil {
		return err
	}
	if err := l.sess.Fill(ctx, search.Element, query); err != nil {
		return failure.Action(search.Descriptor, err)
	}
	l.sess.Pacer.Delay(ctx, 2*time.Second, 3*time.Second)

	result, err := l.FindResult(ctx, query)
	if err != nil {
		logger.Info("No result row found, submitting search with Enter", "name", query)
		if !l.submitSearch(ctx) {
			return fmt.Errorf("%w: %s: %w", ErrNotFound, query, err)
		}
	} else if err := l.activate(ctx, result); err != nil {
		return err
	}

	logger.Info("Community opened", "name", query)
	return l.openDetails(ctx)
}

// FindResult resolves the result row for an already-submitted search. It
// never acts on the page, so repeated calls against an unchanged list return
// the same target.
func (l *Locator) FindResult(ctx context.Context, query string) (resolver.Target, error) {
	target, err := l.sess.Await(ctx, whatsapp.CommunityResult(query))
	if err != nil {
		return resolver.Target{}, err
	}
	if !target.Primary() {
		logger.Warn("No exact title match, assuming this row is the community",
			"name", query, "strategy", target.Strategy)
	}
	return target, nil
}

// submitSearch is the last resort: Enter opens the top search hit
func (l *Locator) submitSearch(ctx context.Context) bool {
	if err := l.sess.Page.Press(ui.KeyEnter); err != nil {
		logger.Warn("Failed to press Enter in search", "error", err)
		return false
	}
	l.sess.Pacer.Pause(ctx, enterSettle)

	if _, err := l.sess.Resolver.Await(ctx, whatsapp.ConversationOpen(), l.sess.Timeouts.Verify); err != nil {
		logger.Warn("Enter did not open a conversation")
		return false
	}
	logger.Warn("Conversation opened via Enter, assuming it is the requested community")
	return true
}

func (l *Locator) activate(ctx context.Context, target resolver.Target) error {
	var lastErr error
	for _, a := range activations {
		if err := a.do(target.Element); err != nil {
			logger.Info("Activation method failed", "method", a.name, "error", err)
			lastErr = err
			continue
		}
		l.sess.Pacer.Pause(ctx, activationSettle)

		if _, err := l.sess.Resolver.Await(ctx, whatsapp.ConversationOpen(), l.sess.Timeouts.Verify); err != nil {
			logger.Info("Conversation not open after activation", "method", a.name)
			lastErr = err
			continue
		}
		logger.Debug("Result activated", "method", a.name)
		return nil
	}
	return failure.Action(target.Descriptor, fmt.Errorf("conversation did not open after %d activation methods: %w", len(activations), lastErr))
}

// openDetails opens the community info drawer. An open conversation alone
// does not expose the membership controls.
func (l *Locator) openDetails(ctx context.Context) error {
	l.sess.Pacer.Pause(ctx, activationSettle)
	logger.Info("Opening profile details")

	details, err := l.sess.Await(ctx, whatsapp.ProfileDetails())
	if err != nil {
		return err
	}
	if err := details.Element.Click(); err != nil {
		return failure.Action(details.Descriptor, err)
	}
	l.sess.Pacer.Delay(ctx, 2*time.Second, 3*time.Second)
	return nil
}
