package membership

import (
	"context"
	"time"

	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/session"
	"github.com/yourusername/community-manager/internal/ui"
	"github.com/yourusername/community-manager/internal/whatsapp"
)

// Adder adds a phone number to the community whose details drawer is open
type Adder struct {
	machine
}

// NewAdder creates an Adder bound to a session
func NewAdder(sess *session.Context) *Adder {
	return &Adder{machine{kind: Add, sess: sess}}
}

// Run executes the add pipeline. The community must already be open.
func (a *Adder) Run(ctx context.Context, community string, phone records.Phone) Outcome {
	lookup := a.sess.Phones.Lookup(phone)

	return a.run(ctx, community, phone, []step{
		{CommunityTabOpened, func(ctx context.Context) error {
			return a.click(ctx, whatsapp.AnnouncementsTab(), 2*time.Second, 3*time.Second)
		}},
		{AddMembersDialogOpened, func(ctx context.Context) error {
			return a.click(ctx, whatsapp.AddMembersButton(), 2*time.Second, 3*time.Second)
		}},
		{NumberEntered, func(ctx context.Context) error {
			if err := a.fill(ctx, whatsapp.PickerSearch(), lookup); err != nil {
				return err
			}
			a.sess.Pacer.Pause(ctx, 2*time.Second)

			// Enter picks the contact matching the typed number
			if err := a.sess.Page.Press(ui.KeyEnter); err != nil {
				return failure.Action(whatsapp.PickerSearch().Name, err)
			}
			a.sess.Pacer.Delay(ctx, 3*time.Second, 4*time.Second)
			return nil
		}},
		{NumberConfirmed, func(ctx context.Context) error {
			return a.click(ctx, whatsapp.ConfirmSelection(), 2*time.Second, 3*time.Second)
		}},
		{MemberAdded, func(ctx context.Context) error {
			return a.press(ctx, whatsapp.FinalAddMember())
		}},
	})
}
