package service

import (
	"context"
	"log/slog"

	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
	"github.com/splitpay/split_wallet_service/utils"
)

// MigrationRepairService detects and corrects drifted wallet data: corrupted
// owed/paid pairs and totals that diverged from the canonical bill amount.
type MigrationRepairService struct {
	wallets    WalletStore
	maxRetries int
}

func NewMigrationRepairService(wallets WalletStore) *MigrationRepairService {
	return &MigrationRepairService{wallets: wallets, maxRetries: 3}
}

// isCorrupted flags the signature left by the historic write bug: a payment
// recorded against a zeroed share.
func isCorrupted(p *entity.Participant) bool {
	return p.AmountOwed == 0 && p.AmountPaid > 0
}

// RepairSplitWalletData scans a wallet for corrupted participants. When the
// signature is found, every participant's share is recomputed as an equal
// split of the total and their status is re-inferred from the paid amount
// against the new share. Returns whether a repair was persisted.
func (m *MigrationRepairService) RepairSplitWalletData(ctx context.Context, walletID string) (bool, error) {
	const op = "repair split wallet"

	for attempt := 0; attempt < m.maxRetries; attempt++ {
		wallet, err := m.wallets.GetByID(ctx, walletID)
		if err != nil {
			return false, err
		}

		corrupted := false
		for i := range wallet.Participants {
			if isCorrupted(&wallet.Participants[i]) {
				corrupted = true
				break
			}
		}
		if !corrupted {
			return false, nil
		}

		slog.Warn("data corruption detected, repairing",
			"wallet_id", walletID, "participants", len(wallet.Participants))

		share := utils.EqualShare(wallet.TotalAmount, len(wallet.Participants))
		for i := range wallet.Participants {
			p := &wallet.Participants[i]
			p.AmountOwed = share
			switch {
			case p.AmountPaid >= share-utils.AMOUNT_EPSILON && p.AmountPaid > 0:
				p.Status = entity.ParticipantPaid
			case p.AmountPaid > 0:
				p.Status = entity.ParticipantLocked
			}
		}

		err = m.wallets.UpdateParticipants(ctx, walletID, wallet.Participants, wallet.Version)
		if wrapErrors.HasCode(err, wrapErrors.CodeVersionConflict) {
			continue
		}
		if err != nil {
			return false, wrapErrors.WrapWithCode(wrapErrors.CodeDataCorruption, op, err)
		}

		slog.Info("split wallet repaired", "wallet_id", walletID, "equal_share", share)
		return true, nil
	}
	return false, wrapErrors.Newf(wrapErrors.CodeVersionConflict, op,
		"wallet %s kept changing, giving up after %d attempts", walletID, m.maxRetries)
}

// MigrateToCanonicalTotal rewrites the wallet total when it drifted more
// than a cent from the canonical bill amount.
func (m *MigrationRepairService) MigrateToCanonicalTotal(ctx context.Context, wallet *entity.SplitWallet, expectedTotal float64) error {
	if utils.AmountsEqual(wallet.TotalAmount, expectedTotal) {
		return nil
	}

	slog.Warn("wallet total drifted from canonical amount",
		"wallet_id", wallet.ID, "stored", wallet.TotalAmount, "expected", expectedTotal)

	if err := m.wallets.UpdateTotalAmount(ctx, wallet.ID, expectedTotal, wallet.Version); err != nil {
		return err
	}
	wallet.TotalAmount = expectedTotal
	wallet.Version++
	return nil
}
