package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/session"
	"github.com/yourusername/community-manager/internal/whatsapp"
)

// Reuse policies accepted in configuration
const (
	ReuseAuto   = "auto"
	ReuseCached = "cached"
	ReuseFresh  = "fresh"
)

// settleAfterLoad lets the chat list finish rendering before the first search
const settleAfterLoad = 3 * time.Second

// HasCachedProfile reports whether dir holds a browser profile from an
// earlier run. An empty directory does not count.
func HasCachedProfile(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// DecideMode picks the session mode once, before the browser starts.
// Cached is only possible when a profile exists.
func DecideMode(reuse, dir string) (session.Mode, error) {
	cached := HasCachedProfile(dir)

	switch strings.ToLower(strings.TrimSpace(reuse)) {
	case "", ReuseAuto:
		if cached {
			logger.Info("Found saved session, reusing it", "profile_dir", dir)
			return session.Cached, nil
		}
		logger.Info("No saved session found, a QR scan will be required", "profile_dir", dir)
		return session.Fresh, nil

	case ReuseCached:
		if !cached {
			logger.Warn("Saved session requested but none exists, falling back to QR login", "profile_dir", dir)
			return session.Fresh, nil
		}
		return session.Cached, nil

	case ReuseFresh:
		return session.Fresh, nil

	default:
		return session.Cached, fmt.Errorf("unknown session reuse policy %q (must be auto, cached or fresh)", reuse)
	}
}

// ClearProfile removes a saved browser profile so the next launch starts
// logged out
func ClearProfile(dir string) error {
	if !HasCachedProfile(dir) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove session profile: %w", err)
	}
	logger.Info("Session cleared successfully", "profile_dir", dir)
	return nil
}

// Establish blocks until the client shows the chat list. In fresh mode the
// operator has to scan the pairing QR code within the login timeout. Any
// failure here is a session failure and must stop the run.
func Establish(ctx context.Context, sc *session.Context) error {
	timeout := sc.Timeouts.Load

	if sc.Mode == session.Fresh {
		timeout = sc.Timeouts.Login
		logQRInstructions()
	} else {
		logger.Info("Using saved session, no QR scan needed")
	}

	logger.Info("Waiting for WhatsApp Web to load", "timeout", timeout)
	if _, err := sc.Resolver.Await(ctx, whatsapp.ChatSearch(), timeout); err != nil {
		if sc.Resolver.Present(whatsapp.LoginQRCode()) {
			logger.Error("Login QR code is still displayed, the session is not linked")
		}
		return failure.Session(fmt.Errorf("client never reached the chat list: %w", err))
	}

	logger.Info("WhatsApp Web loaded successfully", "mode", sc.Mode.String())
	sc.Pacer.Pause(ctx, settleAfterLoad)
	return nil
}

func logQRInstructions() {
	logger.Info("Scan the QR code to link this browser")
	logger.Info("1. Open WhatsApp on your phone")
	logger.Info("2. Go to Settings > Linked devices")
	logger.Info("3. Scan the QR code shown in the browser window")
	logger.Info("4. The session is kept for future runs")
}
