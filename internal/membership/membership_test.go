package membership

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/resolver"
	"github.com/yourusername/community-manager/internal/session"
	"github.com/yourusername/community-manager/internal/stealth"
	"github.com/yourusername/community-manager/internal/ui"
	"github.com/yourusername/community-manager/internal/ui/uitest"
)

const phone = records.Phone("3001112222")

func newSession(page *uitest.Page) *session.Context {
	pacer := stealth.NewPacer(stealth.WithSleeper(func(context.Context, time.Duration) {}))
	sc := session.New(page, resolver.New(page, resolver.WithPollInterval(time.Millisecond)), pacer)
	sc.Timeouts.Step = 20 * time.Millisecond
	return sc
}

func TestAddSucceeds(t *testing.T) {
	page := uitest.NewPage()
	out := NewAdder(newSession(page)).Run(context.Background(), "Vecinos Norte", phone)

	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, Add, out.Kind)
	assert.Equal(t, phone, out.Target)
	assert.Empty(t, out.FailingStep)

	want := []StepID{CommunityTabOpened, AddMembersDialogOpened, NumberEntered, NumberConfirmed, MemberAdded, Closed}
	if diff := cmp.Diff(want, out.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}

	picker := page.Find("Buscar un nombre")
	require.NotNil(t, picker)
	assert.Equal(t, "+573001112222", picker.Typed)
	assert.Equal(t, 1, page.PressCount(ui.KeyEnter))
	assert.Equal(t, 1, page.Find("checkmark-medium").Clicks)
	assert.Equal(t, 1, page.Find("'Añadir miembro')").Clicks)

	// reset on the way out
	assert.Equal(t, 3, page.PressCount(ui.KeyEscape))
}

func TestAddFailsAtNumberConfirmed(t *testing.T) {
	page := uitest.NewPage()
	page.Block("checkmark")
	sess := newSession(page)
	sess.SnapshotDir = t.TempDir()

	out := NewAdder(sess).Run(context.Background(), "Vecinos Norte", phone)

	assert.False(t, out.Succeeded())
	assert.Equal(t, Failure, out.Result)
	assert.Equal(t, NumberConfirmed, out.FailingStep)
	assert.True(t, failure.Is(out.Err, failure.KindTimeout))
	assert.Equal(t, []StepID{CommunityTabOpened, AddMembersDialogOpened, NumberEntered}, out.Trail)

	assert.Nil(t, page.Find("'Añadir miembro')"), "later steps never run")
	assert.Equal(t, 3, page.PressCount(ui.KeyEscape), "UI reset after failure")
	require.NotEmpty(t, out.Snapshot)
	assert.Contains(t, out.Snapshot, "add_NumberConfirmed_3001112222")
	assert.Equal(t, []string{out.Snapshot}, page.Screenshots)
}

func TestAddFinalButtonFallsBackToScriptClick(t *testing.T) {
	page := uitest.NewPage()
	page.Configure = func(e *uitest.Element) {
		if strings.Contains(e.Expr, "'Añadir miembro')") {
			e.ClickErr = errors.New("other element would receive the click")
		}
	}

	out := NewAdder(newSession(page)).Run(context.Background(), "Vecinos Norte", phone)

	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, 1, page.Find("'Añadir miembro')").ScriptClicks)
}

func TestAddRejectedClickFails(t *testing.T) {
	page := uitest.NewPage()
	page.Configure = func(e *uitest.Element) {
		if strings.Contains(e.Expr, "@data-tab='6'") {
			e.ClickErr = errors.New("detached")
		}
	}

	out := NewAdder(newSession(page)).Run(context.Background(), "Vecinos Norte", phone)

	assert.Equal(t, CommunityTabOpened, out.FailingStep)
	assert.True(t, failure.Is(out.Err, failure.KindAction))
	assert.Empty(t, out.Trail)
}

func TestRemoveSucceeds(t *testing.T) {
	page := uitest.NewPage()
	out := NewRemover(newSession(page)).Run(context.Background(), "Vecinos Norte", phone)

	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, Remove, out.Kind)

	want := []StepID{CommunityTabOpened, MemberSearchOpened, NumberEntered, ContactSelected, RemoveOptionSelected, RemoveConfirmed, Closed}
	if diff := cmp.Diff(want, out.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}

	memberSearch := page.Find("Buscar miembros")
	require.NotNil(t, memberSearch)
	assert.Equal(t, "+573001112222", memberSearch.Typed)
	assert.Nil(t, page.Find("@data-tab='3']"), "chat search is not used")

	assert.Equal(t, 1, page.Find("_ak8l").Clicks)
	assert.Equal(t, 1, page.Find("Eliminar de la comunidad").Clicks)
	assert.Equal(t, 1, page.Find("text()='Eliminar'").Clicks)
}

func TestRemoveFailsWhenSearchFindsNoMember(t *testing.T) {
	page := uitest.NewPage()
	page.Block("_ak8l", "[.//span[@title]]")

	out := NewRemover(newSession(page)).Run(context.Background(), "Vecinos Norte", phone)

	assert.Equal(t, ContactSelected, out.FailingStep)
	assert.Nil(t, page.Find("Eliminar de la comunidad"))
	assert.Nil(t, page.Find("text()='Eliminar'"))
	assert.Equal(t, 3, page.PressCount(ui.KeyEscape))
}

func TestRemoveConfirmFallsBackToScriptClick(t *testing.T) {
	page := uitest.NewPage()
	page.Configure = func(e *uitest.Element) {
		if strings.Contains(e.Expr, "text()='Eliminar'") {
			e.ClickErr = errors.New("covered")
		}
	}

	out := NewRemover(newSession(page)).Run(context.Background(), "Vecinos Norte", phone)
	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, 1, page.Find("text()='Eliminar'").ScriptClicks)
}

func TestRemoveUsesSecondaryStrategy(t *testing.T) {
	page := uitest.NewPage()
	page.Block("x1ypdohk")

	out := NewRemover(newSession(page)).Run(context.Background(), "Vecinos Norte", phone)

	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, 1, page.Find("miembros de la comunidad").Clicks)
}

func TestRejected(t *testing.T) {
	err := errors.New("no digits")
	out := Rejected(Remove, "Vecinos", "", PhoneNormalized, err)

	assert.False(t, out.Succeeded())
	assert.Equal(t, PhoneNormalized, out.FailingStep)
	assert.Equal(t, err, out.Err)
	assert.Empty(t, out.Trail)
}

func TestKindAndResultStrings(t *testing.T) {
	assert.Equal(t, "add", Add.String())
	assert.Equal(t, "remove", Remove.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "failure", Failure.String())
}
