// Package browser launches Chrome on a persistent profile and exposes the
// WhatsApp tab through the ui.Page surface the engine drives.
package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/yourusername/community-manager/internal/logger"
	st "github.com/yourusername/community-manager/internal/stealth"
)

// Options configures a browser launch
type Options struct {
	ProfileDir string
	Headless   bool
	// Bin overrides the Chrome binary; empty means the system install,
	// then a downloaded one.
	Bin string
}

// Browser is a running Chrome bound to one profile directory
type Browser struct {
	rod      *rod.Browser
	headless bool
}

// newLauncher builds the launch flags without starting anything
func newLauncher(opts Options) *launcher.Launcher {
	l := launcher.New()

	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	} else if path, exists := launcher.LookPath(); exists {
		logger.Info("Using system Chrome browser", "path", path)
		l = l.Bin(path)
	} else {
		logger.Info("System Chrome not found, using downloaded browser")
	}

	l = l.Headless(opts.Headless).
		Devtools(false).
		Leakless(false). // Disable leakless to avoid antivirus issues
		UserDataDir(opts.ProfileDir).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-notifications").
		Set("no-first-run").
		Set("no-default-browser-check").
		Delete("enable-automation")

	if opts.Headless {
		// Headless Chrome advertises itself in the user agent
		l = l.Set("user-agent", st.RandomizeUserAgent())
	} else {
		l = l.Set("start-maximized")
	}

	return l
}

// Launch starts Chrome on the profile directory and connects to it
func Launch(opts Options) (*Browser, error) {
	if opts.ProfileDir == "" {
		return nil, fmt.Errorf("profile directory is required")
	}
	if err := os.MkdirAll(opts.ProfileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	l := newLauncher(opts)
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logger.Info("Browser launched successfully", "headless", opts.Headless, "profile", opts.ProfileDir)
	return &Browser{rod: b, headless: opts.Headless}, nil
}

// Open creates a stealth tab and navigates it to url. The returned page is
// bound to ctx: cancelling it aborts any in-flight browser call.
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	page, err := st.Page(b.rod)
	if err != nil {
		return nil, err
	}

	if err := st.DisableAutomationFlags(page); err != nil {
		logger.Warn("Failed to disable automation flags", "error", err)
	}
	if b.headless {
		if err := st.SetRealisticViewport(page); err != nil {
			logger.Warn("Failed to set viewport", "error", err)
		}
	}

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to wait for page load: %w", err)
	}

	return newPage(page), nil
}

// Close shuts the browser down. The launcher's Cleanup is never called: it
// removes the user data dir, and the next run reuses that session.
func (b *Browser) Close() error {
	logger.Info("Closing browser...")
	if err := b.rod.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
