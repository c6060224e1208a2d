// Package failure holds the error kinds raised while driving the messaging
// client. Only KindSession is fatal to a batch; every other kind is scoped
// to the step that produced it.
package failure

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a failure
type Kind string

const (
	// KindResolution: a target's full strategy list matched nothing
	KindResolution Kind = "resolution"
	// KindAction: a resolved target rejected the attempted action
	KindAction Kind = "action"
	// KindTimeout: a bounded wait for a UI condition expired
	KindTimeout Kind = "timeout"
	// KindSession: the session never reached a ready state
	KindSession Kind = "session"
)

// Error is a classified failure against a named UI target
type Error struct {
	Kind   Kind
	Target string
	// Tried lists the strategy names evaluated, in order
	Tried []string
	After time.Duration
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failure on %q", e.Kind, e.Target)
	if len(e.Tried) > 0 {
		fmt.Fprintf(&b, " (tried %s)", strings.Join(e.Tried, ", "))
	}
	if e.After > 0 {
		fmt.Fprintf(&b, " after %s", e.After)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resolution reports that no strategy located target
func Resolution(target string, tried []string) error {
	return &Error{Kind: KindResolution, Target: target, Tried: tried}
}

// Action reports that target rejected an action
func Action(target string, err error) error {
	return &Error{Kind: KindAction, Target: target, Err: err}
}

// Timeout reports that waiting for target gave up after d
func Timeout(target string, tried []string, d time.Duration) error {
	return &Error{Kind: KindTimeout, Target: target, Tried: tried, After: d}
}

// Interrupted reports that waiting for target stopped because its context
// ended. The context error stays in the chain for errors.Is.
func Interrupted(target string, tried []string, err error) error {
	return &Error{Kind: KindTimeout, Target: target, Tried: tried, Err: err}
}

// Session reports that the browser session could not be established
func Session(err error) error {
	return &Error{Kind: KindSession, Target: "session", Err: err}
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// Is reports whether err carries a failure of kind k
func Is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsFatal reports whether err must stop the whole batch
func IsFatal(err error) bool {
	return Is(err, KindSession)
}
