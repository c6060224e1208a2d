package membership

import (
	"context"
	"time"

	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/session"
	"github.com/yourusername/community-manager/internal/whatsapp"
)

// Remover removes a phone number from the community whose details drawer
// is open
type Remover struct {
	machine
}

// NewRemover creates a Remover bound to a session
func NewRemover(sess *session.Context) *Remover {
	return &Remover{machine{kind: Remove, sess: sess}}
}

// Run executes the remove pipeline. The community must already be open.
func (r *Remover) Run(ctx context.Context, community string, phone records.Phone) Outcome {
	lookup := r.sess.Phones.Lookup(phone)

	return r.run(ctx, community, phone, []step{
		{CommunityTabOpened, func(ctx context.Context) error {
			// the community view loads slowly
			return r.click(ctx, whatsapp.CommunityViewTab(), 4*time.Second, 6*time.Second)
		}},
		{MemberSearchOpened, func(ctx context.Context) error {
			return r.click(ctx, whatsapp.MembersButton(), 2*time.Second, 3*time.Second)
		}},
		{NumberEntered, func(ctx context.Context) error {
			if err := r.fill(ctx, whatsapp.MemberSearch(), lookup); err != nil {
				return err
			}
			r.sess.Pacer.Delay(ctx, 2*time.Second, 3*time.Second)
			return nil
		}},
		{ContactSelected, func(ctx context.Context) error {
			target, err := r.sess.Await(ctx, whatsapp.MemberResult())
			if err != nil {
				return err
			}
			// Member rows expose no number to compare against
			logger.Warn("Selecting the first member search result, assuming it is the searched number",
				"phone", lookup, "strategy", target.Strategy)
			if err := target.Element.Click(); err != nil {
				return failure.Action(target.Descriptor, err)
			}
			r.sess.Pacer.Delay(ctx, 2*time.Second, 3*time.Second)
			return nil
		}},
		{RemoveOptionSelected, func(ctx context.Context) error {
			return r.click(ctx, whatsapp.RemoveOption(), 2*time.Second, 3*time.Second)
		}},
		{RemoveConfirmed, func(ctx context.Context) error {
			return r.press(ctx, whatsapp.RemoveConfirm())
		}},
	})
}
