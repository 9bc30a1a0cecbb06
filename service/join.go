package service

import (
	"context"
	"log/slog"

	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
	"github.com/splitpay/split_wallet_service/utils"
)

// SplitStore is the write contract against the split-description aggregate.
type SplitStore interface {
	AddParticipant(ctx context.Context, splitID, userID string) error
}

// ProfileStore resolves user ids to display names and settlement addresses.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error)
}

// ParticipantJoinCoordinator adds a participant to both the split
// description and its wallet. The two aggregates are kept eventually
// consistent: the description write must succeed, the wallet mirror is
// best-effort and a failure there is logged without failing the join.
type ParticipantJoinCoordinator struct {
	splits     SplitStore
	wallets    WalletStore
	profiles   ProfileStore
	notifier   Notifier
	maxRetries int
}

func NewParticipantJoinCoordinator(splits SplitStore, wallets WalletStore, profiles ProfileStore, notifier Notifier) *ParticipantJoinCoordinator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ParticipantJoinCoordinator{
		splits:     splits,
		wallets:    wallets,
		profiles:   profiles,
		notifier:   notifier,
		maxRetries: 3,
	}
}

// JoinSplit adds userID to the wallet's split. Idempotent for participants
// who already committed or paid; pending invitees are promoted; new joiners
// are appended with an equal share across the new participant count.
func (c *ParticipantJoinCoordinator) JoinSplit(ctx context.Context, walletID, userID string) (*entity.SplitWallet, error) {
	const op = "join split"

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		wallet, err := c.wallets.GetByID(ctx, walletID)
		if err != nil {
			return nil, err
		}
		if wallet.Status.IsTerminal() {
			return nil, wrapErrors.Newf(wrapErrors.CodeWalletState, op,
				"wallet %s is %s", walletID, wallet.Status)
		}

		idx := wallet.FindParticipant(userID)
		if idx >= 0 {
			switch wallet.Participants[idx].Status {
			case entity.ParticipantPaid, entity.ParticipantLocked:
				// Already in. Nothing to mirror.
				return wallet, nil
			default:
				wallet.Participants[idx].Status = entity.ParticipantLocked
			}
		} else {
			profile := c.lookupProfile(ctx, userID)
			share := utils.EqualShare(wallet.TotalAmount, len(wallet.Participants)+1)
			wallet.Participants = append(wallet.Participants, entity.Participant{
				UserID:        userID,
				Name:          profile.DisplayName,
				WalletAddress: profile.WalletAddress,
				AmountOwed:    share,
				AmountPaid:    0,
				Status:        entity.ParticipantPending,
			})
		}

		if err := c.splits.AddParticipant(ctx, wallet.BillID, userID); err != nil {
			return nil, err
		}

		err = c.wallets.UpdateParticipants(ctx, walletID, wallet.Participants, wallet.Version)
		if wrapErrors.HasCode(err, wrapErrors.CodeVersionConflict) {
			continue
		}
		if err != nil {
			// Description updated, wallet mirror failed. Accepted drift;
			// the repair service reconciles it.
			slog.Warn("join recorded on split but wallet mirror failed",
				"wallet_id", walletID, "user_id", userID, "error", err)
			return wallet, nil
		}

		slog.Info("participant joined split", "wallet_id", walletID, "user_id", userID)
		c.notifier.Notify(ctx, wallet.CreatorID, "participant_joined", map[string]any{
			"wallet_id": walletID,
			"user_id":   userID,
		})
		return wallet, nil
	}
	return nil, wrapErrors.Newf(wrapErrors.CodeVersionConflict, op,
		"wallet %s kept changing, giving up after %d attempts", walletID, c.maxRetries)
}

// lookupProfile is best-effort: a missing profile falls back to the bare
// user id so a join never fails on the directory.
func (c *ParticipantJoinCoordinator) lookupProfile(ctx context.Context, userID string) entity.UserProfile {
	profile, err := c.profiles.GetByUserID(ctx, userID)
	if err != nil {
		slog.Warn("profile lookup failed, joining with bare id", "user_id", userID, "error", err)
		return entity.UserProfile{UserID: userID, DisplayName: userID}
	}
	return *profile
}
