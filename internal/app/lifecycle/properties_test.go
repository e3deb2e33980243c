package lifecycle_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewReference_AlwaysWellFormed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entropy := rapid.SliceOfN(rapid.Byte(), 64, 256).Draw(t, "entropy")
		ref, err := lifecycle.NewReference(bytes.NewReader(entropy))
		if err != nil {
			// Not enough usable bytes in the draw; that is an error, not a bad reference.
			return
		}
		if !lifecycle.ValidReference(ref) {
			t.Fatalf("malformed reference %q", ref)
		}
	})
}

func TestMembershipNumber_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(2000, 2999).Draw(t, "year")
		seq := rapid.Int64Range(1, 99999).Draw(t, "seq")
		s := lifecycle.FormatMembershipNumber(year, seq)
		y, n, ok := lifecycle.ParseMembershipNumber(s)
		if !ok || y != year || n != seq {
			t.Fatalf("%s parsed as (%d, %d, %v)", s, y, n, ok)
		}
	})
}

// Random interleavings of register / pay / verify / reject must keep
// references and membership numbers unique, verified payments tied to
// active numbered members, and sequence parts increasing in activation order.
func TestLifecycle_Invariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t)
		ctx := context.Background()

		var members []models.Member
		var pending []models.PaymentRecord
		var activationOrder []string
		verified := map[string]bool{}

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch op := rapid.IntRange(0, 3).Draw(t, "op"); {
			case op == 0 || len(members) == 0:
				reg := anita()
				reg.Email = fmt.Sprintf("member%d@example.com", len(members))
				m, err := f.mgr.AddMember(ctx, reg)
				require.NoError(t, err)
				members = append(members, m)

			case op == 1:
				m := members[rapid.IntRange(0, len(members)-1).Draw(t, "member")]
				p, err := f.mgr.AddPayment(ctx, editor, lifecycle.PaymentInput{
					MemberID: m.ID, Amount: 2500, PaymentMethod: models.PaymentETransfer,
				})
				require.NoError(t, err)
				pending = append(pending, p)

			case op == 2 && len(pending) > 0:
				idx := rapid.IntRange(0, len(pending)-1).Draw(t, "payment")
				p := pending[idx]
				pending = append(pending[:idx], pending[idx+1:]...)
				act, err := f.mgr.VerifyPayment(ctx, editor, p.ID)
				require.NoError(t, err)
				require.Equal(t, models.StatusActive, act.Member.Status)
				require.NotEmpty(t, act.Member.MembershipNumber)
				require.Equal(t, act.Member.MembershipStartDate.AddDate(1, 0, 0), *act.Member.MembershipEndDate)
				if !verified[act.Member.ID] {
					activationOrder = append(activationOrder, act.Member.MembershipNumber)
				}
				verified[act.Member.ID] = true

			case op == 3 && len(pending) > 0:
				idx := rapid.IntRange(0, len(pending)-1).Draw(t, "payment")
				p := pending[idx]
				pending = append(pending[:idx], pending[idx+1:]...)
				before, err := f.mgr.GetMember(ctx, viewer, p.MemberID)
				require.NoError(t, err)
				reason := rapid.StringN(0, 20, -1).Draw(t, "reason")
				rej, err := f.mgr.RejectPayment(ctx, editor, p.ID, reason)
				require.NoError(t, err)
				require.Equal(t, reason, rej.RejectionReason)
				after, err := f.mgr.GetMember(ctx, viewer, p.MemberID)
				require.NoError(t, err)
				require.Equal(t, before.Status, after.Status)
				require.Equal(t, before.MembershipNumber, after.MembershipNumber)
			}
		}

		all, err := f.mgr.ListMembers(ctx, viewer)
		require.NoError(t, err)
		refs := map[string]bool{}
		numbers := map[string]bool{}
		for _, m := range all {
			require.True(t, lifecycle.ValidReference(m.RegistrationReference))
			require.False(t, refs[m.RegistrationReference], "duplicate reference %s", m.RegistrationReference)
			refs[m.RegistrationReference] = true
			if m.MembershipNumber != "" {
				require.True(t, verified[m.ID], "only activated members carry a number")
				require.False(t, numbers[m.MembershipNumber], "duplicate number %s", m.MembershipNumber)
				numbers[m.MembershipNumber] = true
			}
		}

		var last int64
		for _, n := range activationOrder {
			_, seq, ok := lifecycle.ParseMembershipNumber(n)
			require.True(t, ok)
			require.Greater(t, seq, last)
			last = seq
		}
	})
}
