package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
)

func newTestCoordinator(t *testing.T) (*ParticipantJoinCoordinator, *SplitWalletService, *fakeWalletStore, *fakeSplitStore) {
	t.Helper()
	svc, store, _ := newTestService(t)
	splits := newFakeSplitStore()
	profiles := &fakeProfileStore{profiles: map[string]*entity.UserProfile{
		"P3": {UserID: "P3", DisplayName: "Carol", WalletAddress: "0xP3"},
	}}
	coord := NewParticipantJoinCoordinator(splits, store, profiles, nil)
	return coord, svc, store, splits
}

func TestJoinSplit_NewParticipantGetsEqualShare(t *testing.T) {
	coord, svc, _, splits := newTestCoordinator(t)
	wallet := createTwoPartyWallet(t, svc)
	ctx := context.Background()

	joined, err := coord.JoinSplit(ctx, wallet.ID, "P3")
	require.NoError(t, err)

	require.Len(t, joined.Participants, 3)
	p3 := joined.Participants[2]
	assert.Equal(t, "P3", p3.UserID)
	assert.Equal(t, "Carol", p3.Name)
	assert.Equal(t, "0xP3", p3.WalletAddress)
	assert.Equal(t, entity.ParticipantPending, p3.Status)
	assert.Zero(t, p3.AmountPaid)
	// equal share across the new participant count: 100 / 3
	assert.InDelta(t, 33.33, p3.AmountOwed, 0.01)

	// mirrored into the split description
	assert.Contains(t, splits.participants[wallet.BillID], "P3")

	// persisted on the wallet aggregate too
	fresh, err := svc.GetSplitWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fresh.FindParticipant("P3"), 0)
}

func TestJoinSplit_IdempotentForCommittedParticipants(t *testing.T) {
	coord, svc, _, _ := newTestCoordinator(t)
	wallet := createTwoPartyWallet(t, svc)
	ctx := context.Background()

	// P1 is locked from creation; joining again changes nothing
	before, _ := svc.GetSplitWallet(ctx, wallet.ID)
	out, err := coord.JoinSplit(ctx, wallet.ID, "P1")
	require.NoError(t, err)
	assert.Len(t, out.Participants, 2)

	out, err = coord.JoinSplit(ctx, wallet.ID, "P1")
	require.NoError(t, err)
	assert.Len(t, out.Participants, 2)

	after, _ := svc.GetSplitWallet(ctx, wallet.ID)
	assert.Equal(t, before.Participants, after.Participants)
}

func TestJoinSplit_PromotesPendingInvitee(t *testing.T) {
	coord, svc, _, _ := newTestCoordinator(t)
	wallet := createTwoPartyWallet(t, svc)
	ctx := context.Background()

	out, err := coord.JoinSplit(ctx, wallet.ID, "P2")
	require.NoError(t, err)
	p2 := out.Participants[out.FindParticipant("P2")]
	assert.Equal(t, entity.ParticipantLocked, p2.Status)
	assert.Equal(t, 50.0, p2.AmountOwed, "promotion keeps the invited share")
}

func TestJoinSplit_MissingProfileFallsBackToBareID(t *testing.T) {
	coord, svc, _, _ := newTestCoordinator(t)
	wallet := createTwoPartyWallet(t, svc)

	out, err := coord.JoinSplit(context.Background(), wallet.ID, "P4")
	require.NoError(t, err)
	p4 := out.Participants[out.FindParticipant("P4")]
	assert.Equal(t, "P4", p4.Name)
	assert.Empty(t, p4.WalletAddress)
}

func TestJoinSplit_WalletMirrorFailureDoesNotFailJoin(t *testing.T) {
	coord, svc, store, splits := newTestCoordinator(t)
	wallet := createTwoPartyWallet(t, svc)

	store.failParticipantWrites = 1
	out, err := coord.JoinSplit(context.Background(), wallet.ID, "P3")
	require.NoError(t, err, "join succeeds even though the wallet write failed")
	assert.GreaterOrEqual(t, out.FindParticipant("P3"), 0)

	// description got the participant, wallet did not: accepted drift
	assert.Contains(t, splits.participants[wallet.BillID], "P3")
	fresh, _ := svc.GetSplitWallet(context.Background(), wallet.ID)
	assert.Equal(t, -1, fresh.FindParticipant("P3"))
}

func TestJoinSplit_DescriptionWriteFailureFailsJoin(t *testing.T) {
	coord, svc, _, splits := newTestCoordinator(t)
	wallet := createTwoPartyWallet(t, svc)

	splits.addFailures = errors.New("splits collection down")
	_, err := coord.JoinSplit(context.Background(), wallet.ID, "P3")
	require.Error(t, err)

	fresh, _ := svc.GetSplitWallet(context.Background(), wallet.ID)
	assert.Equal(t, -1, fresh.FindParticipant("P3"))
}

func TestJoinSplit_TerminalWalletRejects(t *testing.T) {
	coord, svc, _, _ := newTestCoordinator(t)
	wallet := createTwoPartyWallet(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.CancelSplitWallet(ctx, wallet.ID, ""))
	_, err := coord.JoinSplit(ctx, wallet.ID, "P3")
	assert.Equal(t, wrapErrors.CodeWalletState, wrapErrors.CodeOf(err))
}
