package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/community-manager/internal/resolver"
	"github.com/yourusername/community-manager/internal/stealth"
	"github.com/yourusername/community-manager/internal/ui"
	"github.com/yourusername/community-manager/internal/ui/uitest"
)

func newTestSession(page *uitest.Page) *Context {
	pacer := stealth.NewPacer(stealth.WithSeed(1), stealth.WithSleeper(func(context.Context, time.Duration) {}))
	return New(page, resolver.New(page, resolver.WithPollInterval(time.Millisecond)), pacer)
}

func TestResetUIPressesEscapeAndClosesOverlays(t *testing.T) {
	page := uitest.NewPage()
	s := newTestSession(page)

	s.ResetUI(context.Background())

	assert.Equal(t, 3, page.PressCount(ui.KeyEscape))
	closeBtn := page.Find("Cerrar")
	require.NotNil(t, closeBtn)
	assert.Equal(t, 1, closeBtn.Clicks)
}

func TestResetUISwallowsErrors(t *testing.T) {
	page := uitest.NewPage()
	page.Configure = func(e *uitest.Element) {
		e.ClickErr = errors.New("element is covered")
	}
	s := newTestSession(page)

	assert.NotPanics(t, func() { s.ResetUI(context.Background()) })
	assert.Equal(t, 3, page.PressCount(ui.KeyEscape))
}

func TestResetUISkipsHiddenCloseButtons(t *testing.T) {
	page := uitest.NewPage()
	page.Hide("Cerrar")
	s := newTestSession(page)

	s.ResetUI(context.Background())
	assert.Zero(t, page.Find("Cerrar").Clicks)
}

func TestFillClearsBeforeTyping(t *testing.T) {
	page := uitest.NewPage()
	s := newTestSession(page)
	field := page.Element("search")

	require.NoError(t, s.Fill(context.Background(), field, "+573001112222"))

	assert.Equal(t, 1, field.Clicks)
	assert.Equal(t, 1, page.SelectAlls)
	assert.Equal(t, []ui.Key{ui.KeyDelete}, page.Presses)
	assert.Equal(t, "+573001112222", field.Typed)
}

func TestFillReportsFocusFailure(t *testing.T) {
	page := uitest.NewPage()
	s := newTestSession(page)
	field := page.Element("search")
	field.ClickErr = errors.New("detached")

	assert.Error(t, s.Fill(context.Background(), field, "x"))
	assert.Empty(t, field.Typed)
}

func TestSnapshot(t *testing.T) {
	page := uitest.NewPage()
	s := newTestSession(page)

	assert.Empty(t, s.Snapshot("add failed"), "disabled without a directory")

	s.SnapshotDir = t.TempDir()
	path := s.Snapshot("add/NumberConfirmed")
	require.NotEmpty(t, path)
	assert.True(t, strings.HasPrefix(path, s.SnapshotDir))
	assert.Contains(t, path, "add_NumberConfirmed_")
	assert.Equal(t, []string{path}, page.Screenshots)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "cached", Cached.String())
	assert.Equal(t, "fresh", Fresh.String())
}
