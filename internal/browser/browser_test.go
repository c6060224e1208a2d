package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	st "github.com/yourusername/community-manager/internal/stealth"
	"github.com/yourusername/community-manager/internal/ui"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		key  ui.Key
		want input.Key
	}{
		{ui.KeyEnter, input.Enter},
		{ui.KeyEscape, input.Escape},
		{ui.KeyDelete, input.Delete},
		{ui.KeyBackspace, input.Backspace},
	}

	for _, tt := range tests {
		got, err := keyFor(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}

	_, err := keyFor("F13")
	assert.Error(t, err)
}

func TestCenter(t *testing.T) {
	got := center(&proto.DOMRect{X: 100, Y: 40, Width: 50, Height: 20})
	assert.Equal(t, st.Point{X: 125, Y: 50}, got)
}

func TestLauncherKeepsProfileAndHidesAutomation(t *testing.T) {
	dir := t.TempDir()
	l := newLauncher(Options{ProfileDir: dir, Bin: "/usr/bin/chromium"})

	assert.Equal(t, dir, l.Get(flags.UserDataDir))
	assert.Equal(t, "AutomationControlled", l.Get("disable-blink-features"))
	assert.False(t, l.Has("enable-automation"))
	assert.True(t, l.Has("start-maximized"))
	assert.False(t, l.Has("user-agent"), "headed mode keeps the real user agent")
}

func TestHeadlessLauncherOverridesUserAgent(t *testing.T) {
	l := newLauncher(Options{ProfileDir: t.TempDir(), Headless: true, Bin: "/usr/bin/chromium"})

	assert.True(t, l.Has(flags.Headless))
	assert.NotContains(t, l.Get("user-agent"), "Headless")
	assert.NotEmpty(t, l.Get("user-agent"))
	assert.False(t, l.Has("start-maximized"))
}
