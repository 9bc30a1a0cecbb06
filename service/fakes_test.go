package service

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/splitpay/split_wallet_service/domain"
	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
)

// fakeWalletStore is an in-memory WalletStore with the same version-check
// semantics as the mongo repository. Reads return deep copies so callers
// cannot mutate stored state without going through a write.
type fakeWalletStore struct {
	mu      sync.Mutex
	wallets map[string]*entity.SplitWallet

	// failParticipantWrites makes the next N UpdateParticipants calls fail
	// with a storage error.
	failParticipantWrites int
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{wallets: make(map[string]*entity.SplitWallet)}
}

func copyWallet(w *entity.SplitWallet) *entity.SplitWallet {
	out := *w
	out.Participants = make([]entity.Participant, len(w.Participants))
	copy(out.Participants, w.Participants)
	return &out
}

func (f *fakeWalletStore) Create(_ context.Context, w *entity.SplitWallet) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.StorageID = primitive.NewObjectID()
	f.wallets[w.ID] = copyWallet(w)
	return w.StorageID.Hex(), nil
}

func (f *fakeWalletStore) find(id string) *entity.SplitWallet {
	if w, ok := f.wallets[id]; ok {
		return w
	}
	for _, w := range f.wallets {
		if w.StorageID.Hex() == id {
			return w
		}
	}
	return nil
}

func (f *fakeWalletStore) GetByID(_ context.Context, id string) (*entity.SplitWallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.find(id)
	if w == nil {
		return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get split wallet", "wallet %s not found", id)
	}
	return copyWallet(w), nil
}

func (f *fakeWalletStore) GetByBillID(_ context.Context, billID string) (*entity.SplitWallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.BillID == billID {
			return copyWallet(w), nil
		}
	}
	return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get split wallet by bill", "no wallet for bill %s", billID)
}

func (f *fakeWalletStore) UpdateParticipants(_ context.Context, id string, participants []entity.Participant, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failParticipantWrites > 0 {
		f.failParticipantWrites--
		return wrapErrors.New(wrapErrors.CodeStorage, "update participants", "induced failure")
	}
	w := f.find(id)
	if w == nil || w.Version != version {
		return wrapErrors.Newf(wrapErrors.CodeVersionConflict, "update participants", "wallet %s changed since read", id)
	}
	w.Participants = make([]entity.Participant, len(participants))
	copy(w.Participants, participants)
	w.Version++
	return nil
}

func (f *fakeWalletStore) UpdateStatus(_ context.Context, id string, status entity.WalletStatus, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.find(id)
	if w == nil || w.Version != version {
		return wrapErrors.Newf(wrapErrors.CodeVersionConflict, "update status", "wallet %s changed since read", id)
	}
	w.Status = status
	w.Version++
	return nil
}

func (f *fakeWalletStore) UpdateTotalAmount(_ context.Context, id string, total float64, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.find(id)
	if w == nil || w.Version != version {
		return wrapErrors.Newf(wrapErrors.CodeVersionConflict, "update total amount", "wallet %s changed since read", id)
	}
	w.TotalAmount = total
	w.Version++
	return nil
}

// recordedTransfer captures one call to the fake ledger.
type recordedTransfer struct {
	From      string
	To        string
	Amount    float64
	Memo      string
	KeySigned bool
}

type fakeLedger struct {
	mu        sync.Mutex
	transfers []recordedTransfer
	failNext  error
	failAll   error
	counter   int
}

func (f *fakeLedger) Transfer(_ context.Context, from, to string, amount float64, memo string) (string, error) {
	return f.record(recordedTransfer{From: from, To: to, Amount: amount, Memo: memo})
}

func (f *fakeLedger) TransferWithKey(_ context.Context, _ string, to string, amount float64, memo string) (string, error) {
	return f.record(recordedTransfer{To: to, Amount: amount, Memo: memo, KeySigned: true})
}

func (f *fakeLedger) record(t recordedTransfer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return "", f.failAll
	}
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return "", err
	}
	f.transfers = append(f.transfers, t)
	f.counter++
	return fmt.Sprintf("sig-%d", f.counter), nil
}

type fakeProvisioner struct {
	counter int
	fail    error
}

func (f *fakeProvisioner) CreateEscrowWallet() (*domain.EscrowIdentity, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.counter++
	return &domain.EscrowIdentity{
		Address:   fmt.Sprintf("0xEscrow%04d", f.counter),
		PublicKey: fmt.Sprintf("04pub%04d", f.counter),
		SecretKey: fmt.Sprintf("secret%04d", f.counter),
	}, nil
}

type fakeSplitStore struct {
	mu           sync.Mutex
	splits       map[string]*entity.Split
	addFailures  error
	participants map[string][]string
}

func newFakeSplitStore() *fakeSplitStore {
	return &fakeSplitStore{
		splits:       make(map[string]*entity.Split),
		participants: make(map[string][]string),
	}
}

func (f *fakeSplitStore) GetByID(_ context.Context, id string) (*entity.Split, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.splits[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get split", "split %s not found", id)
}

func (f *fakeSplitStore) AddParticipant(_ context.Context, splitID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addFailures != nil {
		return f.addFailures
	}
	for _, existing := range f.participants[splitID] {
		if existing == userID {
			return nil
		}
	}
	f.participants[splitID] = append(f.participants[splitID], userID)
	return nil
}

type fakeProfileStore struct {
	profiles map[string]*entity.UserProfile
}

func (f *fakeProfileStore) GetByUserID(_ context.Context, userID string) (*entity.UserProfile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get user", "user %s not found", userID)
}
