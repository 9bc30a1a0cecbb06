package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/splitpay/split_wallet_service/chain"
	"github.com/splitpay/split_wallet_service/config"
	"github.com/splitpay/split_wallet_service/domain"
	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
	"github.com/splitpay/split_wallet_service/utils"
)

// WalletStore is the persistence contract for split wallets. All writes are
// conditional on the version the caller read; a VERSION_CONFLICT error means
// a concurrent writer got there first and the caller should re-read.
type WalletStore interface {
	Create(ctx context.Context, w *entity.SplitWallet) (string, error)
	GetByID(ctx context.Context, id string) (*entity.SplitWallet, error)
	GetByBillID(ctx context.Context, billID string) (*entity.SplitWallet, error)
	UpdateParticipants(ctx context.Context, id string, participants []entity.Participant, version int64) error
	UpdateStatus(ctx context.Context, id string, status entity.WalletStatus, version int64) error
	UpdateTotalAmount(ctx context.Context, id string, total float64, version int64) error
}

// EscrowProvisioner mints the dedicated keypair for a new split.
type EscrowProvisioner interface {
	CreateEscrowWallet() (*domain.EscrowIdentity, error)
}

// ParticipantShare is the caller-specified share of one participant at
// wallet creation.
type ParticipantShare struct {
	UserID        string
	Name          string
	WalletAddress string
	AmountOwed    float64
}

// SplitWalletService orchestrates the escrow lifecycle: creation, locking,
// collection, settlement, cancellation and progress queries.
type SplitWalletService struct {
	store        WalletStore
	ledger       chain.LedgerTransferClient
	provisioner  EscrowProvisioner
	sealer       *domain.Sealer
	notifier     Notifier
	strictTotals bool
	maxRetries   int
}

func NewSplitWalletService(
	store WalletStore,
	ledger chain.LedgerTransferClient,
	provisioner EscrowProvisioner,
	sealer *domain.Sealer,
	notifier Notifier,
	cfg config.WalletConfig,
) *SplitWalletService {
	retries := cfg.MaxWriteRetries
	if retries < 1 {
		retries = 3
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SplitWalletService{
		store:        store,
		ledger:       ledger,
		provisioner:  provisioner,
		sealer:       sealer,
		notifier:     notifier,
		strictTotals: cfg.StrictTotals,
		maxRetries:   retries,
	}
}

// CreateSplitWallet provisions a fresh escrow identity, seals its secret key
// and persists the wallet. The creator's entry starts locked (implicit
// acceptance by the party who initiated the split); everyone else starts
// pending. A share sum that misses the total is logged and accepted unless
// strict totals are configured, in which case it rejects.
func (s *SplitWalletService) CreateSplitWallet(ctx context.Context, billID, creatorID string, totalAmount float64, currency string, shares []ParticipantShare) (*entity.SplitWallet, error) {
	const op = "create split wallet"

	if totalAmount <= 0 {
		return nil, wrapErrors.New(wrapErrors.CodeValidation, op, "total amount must be positive")
	}
	if len(shares) == 0 {
		return nil, wrapErrors.New(wrapErrors.CodeValidation, op, "at least one participant required")
	}

	identity, err := s.provisioner.CreateEscrowWallet()
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeProvisioning, op, err)
	}

	sealed, saltMeta, err := s.sealer.Seal(identity.SecretKey)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeProvisioning, op, err)
	}

	participants := make([]entity.Participant, len(shares))
	var owedSum float64
	for i, share := range shares {
		status := entity.ParticipantPending
		if share.UserID == creatorID {
			status = entity.ParticipantLocked
		}
		participants[i] = entity.Participant{
			UserID:        share.UserID,
			Name:          share.Name,
			WalletAddress: share.WalletAddress,
			AmountOwed:    share.AmountOwed,
			AmountPaid:    0,
			Status:        status,
		}
		owedSum += share.AmountOwed
	}

	if !utils.AmountsEqual(owedSum, totalAmount) {
		if s.strictTotals {
			return nil, wrapErrors.Newf(wrapErrors.CodeValidation, op,
				"participant shares sum to %.2f, expected %.2f", owedSum, totalAmount)
		}
		slog.Warn("participant shares do not sum to total",
			"bill_id", billID, "owed_sum", owedSum, "total", totalAmount)
	}

	now := time.Now()
	wallet := &entity.SplitWallet{
		ID:                 uuid.NewString(),
		BillID:             billID,
		CreatorID:          creatorID,
		Address:            identity.Address,
		PublicKey:          identity.PublicKey,
		SecretKeyEncrypted: sealed,
		SaltMeta:           saltMeta,
		TotalAmount:        totalAmount,
		Currency:           currency,
		Status:             entity.WalletStatusActive,
		Participants:       participants,
		Version:            0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := s.store.Create(ctx, wallet); err != nil {
		// The escrow address is already minted and now orphaned.
		slog.Error("split wallet persist failed after provisioning",
			"bill_id", billID, "escrow_address", identity.Address, "error", err)
		return nil, err
	}

	slog.Info("split wallet created",
		"wallet_id", wallet.ID, "bill_id", billID,
		"escrow_address", wallet.Address, "participants", len(participants))
	s.notifier.Notify(ctx, creatorID, "split_wallet_created", map[string]any{
		"wallet_id": wallet.ID,
		"bill_id":   billID,
	})
	return wallet, nil
}

// GetSplitWallet resolves a wallet by service id or storage id.
func (s *SplitWalletService) GetSplitWallet(ctx context.Context, walletID string) (*entity.SplitWallet, error) {
	return s.store.GetByID(ctx, walletID)
}

// GetByBillID resolves the wallet that belongs to a bill.
func (s *SplitWalletService) GetByBillID(ctx context.Context, billID string) (*entity.SplitWallet, error) {
	return s.store.GetByBillID(ctx, billID)
}

// RevealSecretKey decrypts the escrow secret key for the wallet creator.
// Anyone else gets UNAUTHORIZED.
func (s *SplitWalletService) RevealSecretKey(ctx context.Context, walletID, requesterID string) (string, error) {
	const op = "reveal secret key"

	wallet, err := s.store.GetByID(ctx, walletID)
	if err != nil {
		return "", err
	}
	if wallet.CreatorID != requesterID {
		return "", wrapErrors.Newf(wrapErrors.CodeUnauthorized, op,
			"user %s does not hold custody of wallet %s", requesterID, walletID)
	}
	secret, err := s.sealer.Open(wallet.SecretKeyEncrypted, wallet.SaltMeta)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeProvisioning, op, err)
	}
	return secret, nil
}

// LockParticipantAmount records a participant's commitment of their share.
// This is the all-or-nothing mode: funds are committed, not transferred.
func (s *SplitWalletService) LockParticipantAmount(ctx context.Context, walletID, userID string, amount float64) error {
	const op = "lock participant amount"

	if amount <= 0 {
		return wrapErrors.New(wrapErrors.CodeValidation, op, "amount must be positive")
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		wallet, err := s.store.GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet.Status.IsTerminal() {
			return wrapErrors.Newf(wrapErrors.CodeWalletState, op,
				"wallet %s is %s", walletID, wallet.Status)
		}
		idx := wallet.FindParticipant(userID)
		if idx < 0 {
			return wrapErrors.Newf(wrapErrors.CodeNotFound, op,
				"participant %s not in wallet %s", userID, walletID)
		}

		wallet.Participants[idx].Status = entity.ParticipantLocked
		wallet.Participants[idx].AmountPaid = amount

		err = s.store.UpdateParticipants(ctx, walletID, wallet.Participants, wallet.Version)
		if wrapErrors.HasCode(err, wrapErrors.CodeVersionConflict) {
			continue
		}
		if err == nil {
			slog.Info("participant locked", "wallet_id", walletID, "user_id", userID, "amount", amount)
		}
		return err
	}
	return wrapErrors.Newf(wrapErrors.CodeVersionConflict, op,
		"wallet %s kept changing, giving up after %d attempts", walletID, s.maxRetries)
}

// LockSplitWallet transitions the wallet to locked once every participant
// has committed. No funds move here; the status purely gates settlement.
// The all-locked check and the status write ride on the same version token,
// so a concurrent participant change fails the write and we re-check.
func (s *SplitWalletService) LockSplitWallet(ctx context.Context, walletID string) error {
	const op = "lock split wallet"

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		wallet, err := s.store.GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet.Status == entity.WalletStatusLocked {
			return nil
		}
		if wallet.Status != entity.WalletStatusActive {
			return wrapErrors.Newf(wrapErrors.CodeWalletState, op,
				"wallet %s is %s", walletID, wallet.Status)
		}
		if !wallet.AllLocked() {
			return wrapErrors.New(wrapErrors.CodeValidation, op,
				"not all participants have locked their share")
		}

		err = s.store.UpdateStatus(ctx, walletID, entity.WalletStatusLocked, wallet.Version)
		if wrapErrors.HasCode(err, wrapErrors.CodeVersionConflict) {
			continue
		}
		if err == nil {
			slog.Info("split wallet locked", "wallet_id", walletID)
		}
		return err
	}
	return wrapErrors.Newf(wrapErrors.CodeVersionConflict, op,
		"wallet %s kept changing, giving up after %d attempts", walletID, s.maxRetries)
}

// PayParticipantShare collects amount from the participant's personal
// address into escrow. The transfer happens exactly once; only the
// bookkeeping write is retried on version conflicts.
func (s *SplitWalletService) PayParticipantShare(ctx context.Context, walletID, userID string, amount float64) (string, error) {
	const op = "pay participant share"

	if amount <= 0 {
		return "", wrapErrors.New(wrapErrors.CodeValidation, op, "amount must be positive")
	}

	wallet, err := s.store.GetByID(ctx, walletID)
	if err != nil {
		return "", err
	}
	if wallet.Status.IsTerminal() {
		return "", wrapErrors.Newf(wrapErrors.CodeWalletState, op,
			"wallet %s is %s", walletID, wallet.Status)
	}
	idx := wallet.FindParticipant(userID)
	if idx < 0 {
		return "", wrapErrors.Newf(wrapErrors.CodeNotFound, op,
			"participant %s not in wallet %s", userID, walletID)
	}
	p := &wallet.Participants[idx]
	if p.Status == entity.ParticipantPaid {
		return "", wrapErrors.Newf(wrapErrors.CodeValidation, op,
			"participant %s has already paid in full", userID)
	}
	if remaining := p.Remaining(); amount > remaining+utils.AMOUNT_EPSILON {
		return "", wrapErrors.Newf(wrapErrors.CodeValidation, op,
			"amount %.2f exceeds remaining balance %.2f", amount, remaining)
	}
	if p.WalletAddress == "" {
		return "", wrapErrors.Newf(wrapErrors.CodeValidation, op,
			"participant %s has no settlement address", userID)
	}

	memo := fmt.Sprintf("split:%s", wallet.BillID)
	signature, err := s.ledger.Transfer(ctx, p.WalletAddress, wallet.Address, amount, memo)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeTransferFailure, op, err)
	}

	if err := s.recordPayment(ctx, wallet, userID, amount, signature); err != nil {
		if wrapErrors.HasCode(err, wrapErrors.CodeDataCorruption) {
			// The clamped record was written; the caller gets the excess.
			return signature, err
		}
		// Money moved but the record write failed; reconciliation picks
		// this up from the transfer memo.
		slog.Error("payment recorded on chain but not in store",
			"wallet_id", walletID, "user_id", userID, "signature", signature, "error", err)
		return signature, err
	}

	slog.Info("participant share paid",
		"wallet_id", walletID, "user_id", userID, "amount", amount, "signature", signature)
	s.notifier.Notify(ctx, wallet.CreatorID, "participant_paid", map[string]any{
		"wallet_id": walletID,
		"user_id":   userID,
		"amount":    amount,
	})
	return signature, nil
}

// recordPayment applies the paid amount to the participant and writes the
// list back, re-reading on version conflicts without re-transferring. A
// concurrent payment can consume the remaining balance between the
// pre-transfer check and this write; the stored paid amount never exceeds
// the owed share, so any excess is clamped off and surfaced for
// reconciliation against the transfer signature.
func (s *SplitWalletService) recordPayment(ctx context.Context, wallet *entity.SplitWallet, userID string, amount float64, signature string) error {
	const op = "record payment"

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		idx := wallet.FindParticipant(userID)
		if idx < 0 {
			return wrapErrors.Newf(wrapErrors.CodeNotFound, op,
				"participant %s vanished from wallet %s", userID, wallet.ID)
		}
		p := &wallet.Participants[idx]

		applied := amount
		excess := p.AmountPaid + amount - p.AmountOwed
		if excess > utils.AMOUNT_EPSILON {
			applied = p.AmountOwed - p.AmountPaid
			if applied < 0 {
				applied = 0
			}
			slog.Error("payment exceeds remaining balance, clamping record",
				"wallet_id", wallet.ID, "user_id", userID,
				"amount", amount, "excess", excess, "signature", signature)
		} else {
			excess = 0
		}

		p.AmountPaid += applied
		p.TransactionSignature = signature
		if p.AmountPaid >= p.AmountOwed-utils.AMOUNT_EPSILON {
			p.Status = entity.ParticipantPaid
			now := time.Now()
			p.PaidAt = &now
		}

		err := s.store.UpdateParticipants(ctx, wallet.ID, wallet.Participants, wallet.Version)
		if wrapErrors.HasCode(err, wrapErrors.CodeVersionConflict) {
			fresh, rerr := s.store.GetByID(ctx, wallet.ID)
			if rerr != nil {
				return rerr
			}
			wallet = fresh
			continue
		}
		if err != nil {
			return err
		}
		if excess > 0 {
			return wrapErrors.Newf(wrapErrors.CodeDataCorruption, op,
				"transfer %s overpaid participant %s by %.2f and needs a refund", signature, userID, excess)
		}
		return nil
	}
	return wrapErrors.Newf(wrapErrors.CodeVersionConflict, op,
		"wallet %s kept changing, giving up after %d attempts", wallet.ID, s.maxRetries)
}

// SettleToDestination moves the full collected total from escrow to the
// destination in a single transfer signed with the escrow key. Requires
// every participant paid and the collected sum to cover the total.
func (s *SplitWalletService) SettleToDestination(ctx context.Context, walletID, destinationAddress, description string) (string, error) {
	const op = "settle to destination"

	wallet, err := s.store.GetByID(ctx, walletID)
	if err != nil {
		return "", err
	}
	if wallet.Status.IsTerminal() {
		return "", wrapErrors.Newf(wrapErrors.CodeWalletState, op,
			"wallet %s is %s", walletID, wallet.Status)
	}
	if !wallet.AllPaid() || wallet.CollectedAmount() < wallet.TotalAmount-utils.AMOUNT_EPSILON {
		return "", wrapErrors.Newf(wrapErrors.CodeInsufficientFunds, op,
			"collected %.2f of %.2f with unpaid participants", wallet.CollectedAmount(), wallet.TotalAmount)
	}

	secret, err := s.sealer.Open(wallet.SecretKeyEncrypted, wallet.SaltMeta)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeProvisioning, op, err)
	}

	memo := description
	if memo == "" {
		memo = fmt.Sprintf("settlement:%s", wallet.BillID)
	}
	signature, err := s.ledger.TransferWithKey(ctx, secret, destinationAddress, wallet.TotalAmount, memo)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeTransferFailure, op, err)
	}

	if err := s.transitionStatus(ctx, wallet, entity.WalletStatusCompleted); err != nil {
		// Funds already left escrow; the wallet needs external reconciliation.
		slog.Error("settlement transferred but status write failed",
			"wallet_id", walletID, "signature", signature, "error", err)
		return signature, err
	}

	slog.Info("split wallet settled",
		"wallet_id", walletID, "destination", destinationAddress,
		"amount", wallet.TotalAmount, "signature", signature)
	s.notifier.Notify(ctx, wallet.CreatorID, "split_settled", map[string]any{
		"wallet_id":   walletID,
		"destination": destinationAddress,
		"amount":      wallet.TotalAmount,
	})
	return signature, nil
}

// CancelSplitWallet refunds every participant with a positive paid amount,
// sequentially, then marks the wallet cancelled. Individual refund failures
// are logged and do not block the transition or get retried. The escrow key
// is only opened once a refund is actually due, so a wallet nobody paid
// into cancels even when custody is unavailable.
func (s *SplitWalletService) CancelSplitWallet(ctx context.Context, walletID, reason string) error {
	const op = "cancel split wallet"

	wallet, err := s.store.GetByID(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet.Status == entity.WalletStatusCancelled {
		return nil
	}
	if wallet.Status == entity.WalletStatusCompleted {
		return wrapErrors.Newf(wrapErrors.CodeWalletState, op,
			"wallet %s already completed", walletID)
	}

	memo := fmt.Sprintf("refund:%s", wallet.BillID)
	var secret string
	var refunded, failed int
	for i := range wallet.Participants {
		p := &wallet.Participants[i]
		if p.AmountPaid <= 0 {
			continue
		}
		if p.WalletAddress == "" {
			slog.Warn("refund skipped, participant has no address",
				"wallet_id", walletID, "user_id", p.UserID, "amount", p.AmountPaid)
			failed++
			continue
		}
		if secret == "" {
			secret, err = s.sealer.Open(wallet.SecretKeyEncrypted, wallet.SaltMeta)
			if err != nil {
				return wrapErrors.WrapWithCode(wrapErrors.CodeProvisioning, op, err)
			}
		}
		signature, err := s.ledger.TransferWithKey(ctx, secret, p.WalletAddress, p.AmountPaid, memo)
		if err != nil {
			slog.Error("refund transfer failed",
				"wallet_id", walletID, "user_id", p.UserID, "amount", p.AmountPaid, "error", err)
			failed++
			continue
		}
		refunded++
		slog.Info("participant refunded",
			"wallet_id", walletID, "user_id", p.UserID, "amount", p.AmountPaid, "signature", signature)
	}

	if err := s.transitionStatus(ctx, wallet, entity.WalletStatusCancelled); err != nil {
		return err
	}

	slog.Info("split wallet cancelled",
		"wallet_id", walletID, "reason", reason, "refunded", refunded, "failed_refunds", failed)
	s.notifier.Notify(ctx, wallet.CreatorID, "split_cancelled", map[string]any{
		"wallet_id": walletID,
		"reason":    reason,
	})
	return nil
}

// transitionStatus writes a terminal status with version retry, re-reading
// on conflict and refusing if another writer already terminated the wallet.
func (s *SplitWalletService) transitionStatus(ctx context.Context, wallet *entity.SplitWallet, status entity.WalletStatus) error {
	const op = "transition status"

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.store.UpdateStatus(ctx, wallet.ID, status, wallet.Version)
		if err == nil {
			return nil
		}
		if !wrapErrors.HasCode(err, wrapErrors.CodeVersionConflict) {
			return err
		}
		fresh, rerr := s.store.GetByID(ctx, wallet.ID)
		if rerr != nil {
			return rerr
		}
		if fresh.Status.IsTerminal() {
			if fresh.Status == status {
				return nil
			}
			return wrapErrors.Newf(wrapErrors.CodeWalletState, op,
				"wallet %s already %s", wallet.ID, fresh.Status)
		}
		wallet = fresh
	}
	return wrapErrors.Newf(wrapErrors.CodeVersionConflict, op,
		"wallet %s kept changing, giving up after %d attempts", wallet.ID, s.maxRetries)
}

// GetCompletion reports funding progress. The collected amount is the sum
// of participant payments; no on-chain balance is consulted.
func (s *SplitWalletService) GetCompletion(ctx context.Context, walletID string) (*entity.Completion, error) {
	wallet, err := s.store.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	collected := wallet.CollectedAmount()
	var paidCount int
	for i := range wallet.Participants {
		if wallet.Participants[i].Status == entity.ParticipantPaid {
			paidCount++
		}
	}

	var pct float64
	if wallet.TotalAmount > 0 {
		pct = collected / wallet.TotalAmount * 100
		if pct > 100 {
			pct = 100
		}
	}

	remaining := wallet.TotalAmount - collected
	if remaining < 0 {
		remaining = 0
	}

	return &entity.Completion{
		CollectedAmount:      collected,
		TotalAmount:          wallet.TotalAmount,
		RemainingAmount:      remaining,
		CompletionPercentage: pct,
		ParticipantsPaid:     paidCount,
		TotalParticipants:    len(wallet.Participants),
	}, nil
}
