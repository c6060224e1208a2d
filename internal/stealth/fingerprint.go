package stealth

import (
	"fmt"
	"math/rand"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Page opens a tab with the go-rod/stealth evasions already injected
func Page(browser *rod.Browser) (*rod.Page, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("failed to apply stealth: %w", err)
	}
	return page, nil
}

// DisableAutomationFlags masks the properties the client could probe
func DisableAutomationFlags(page *rod.Page) error {
	_, err := page.EvalOnNewDocument(`
		Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
		window.chrome = window.chrome || { runtime: {} };
	`)
	if err != nil {
		return fmt.Errorf("failed to disable webdriver flag: %w", err)
	}
	return nil
}

// RandomizeUserAgent returns a randomized but realistic desktop user agent
func RandomizeUserAgent() string {
	userAgents := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
	return userAgents[rand.Intn(len(userAgents))]
}

// SetRealisticViewport sets a common desktop viewport size. Only used in
// headless mode; a headed window keeps its maximized size.
func SetRealisticViewport(page *rod.Page) error {
	viewports := []struct{ Width, Height int }{
		{1920, 1080},
		{1536, 864},
		{1440, 900},
		{1366, 768},
	}

	viewport := viewports[rand.Intn(len(viewports))]
	return page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  viewport.Width,
		Height: viewport.Height,
	})
}
