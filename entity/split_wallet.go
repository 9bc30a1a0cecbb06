package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalletStatus is the lifecycle state of a split wallet. Terminal states
// (completed, cancelled) permit no further mutation of participants or totals.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusLocked    WalletStatus = "locked"
	WalletStatusCompleted WalletStatus = "completed"
	WalletStatusCancelled WalletStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further mutation.
func (s WalletStatus) IsTerminal() bool {
	return s == WalletStatusCompleted || s == WalletStatusCancelled
}

type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "pending"
	ParticipantLocked  ParticipantStatus = "locked" // full share committed, not yet transferred
	ParticipantPaid    ParticipantStatus = "paid"
	ParticipantFailed  ParticipantStatus = "failed"
)

// Participant is one payer embedded in a SplitWallet.
type Participant struct {
	UserID               string            `bson:"user_id" json:"user_id"`
	Name                 string            `bson:"name" json:"name"`
	WalletAddress        string            `bson:"wallet_address" json:"wallet_address"`
	AmountOwed           float64           `bson:"amount_owed" json:"amount_owed"`
	AmountPaid           float64           `bson:"amount_paid" json:"amount_paid"`
	Status               ParticipantStatus `bson:"status" json:"status"`
	TransactionSignature string            `bson:"transaction_signature,omitempty" json:"transaction_signature,omitempty"`
	PaidAt               *time.Time        `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}

// Remaining is the unpaid share of this participant.
func (p *Participant) Remaining() float64 {
	return p.AmountOwed - p.AmountPaid
}

// SplitWallet is the custodial escrow aggregate for one bill split.
// The escrow secret key is stored envelope-encrypted only; SaltMeta carries
// the KDF parameters as "pbkdf2$<iterations>$<hexsalt>".
type SplitWallet struct {
	StorageID          primitive.ObjectID `bson:"_id,omitempty" json:"storage_id,omitempty"`
	ID                 string             `bson:"id" json:"id"`
	BillID             string             `bson:"bill_id" json:"bill_id"`
	CreatorID          string             `bson:"creator_id" json:"creator_id"`
	Address            string             `bson:"address" json:"address"`
	PublicKey          string             `bson:"public_key" json:"public_key"`
	SecretKeyEncrypted []byte             `bson:"secret_key_encrypted" json:"-"`
	SaltMeta           string             `bson:"salt_meta" json:"-"`
	TotalAmount        float64            `bson:"total_amount" json:"total_amount"`
	Currency           string             `bson:"currency" json:"currency"`
	Status             WalletStatus       `bson:"status" json:"status"`
	Participants       []Participant      `bson:"participants" json:"participants"`
	Version            int64              `bson:"version" json:"-"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// FindParticipant returns the index of the participant with the given user
// id, or -1.
func (w *SplitWallet) FindParticipant(userID string) int {
	for i := range w.Participants {
		if w.Participants[i].UserID == userID {
			return i
		}
	}
	return -1
}

// CollectedAmount sums amount_paid across participants. This is the
// definition of escrow balance used everywhere; no on-chain balance
// check is performed.
func (w *SplitWallet) CollectedAmount() float64 {
	var sum float64
	for i := range w.Participants {
		sum += w.Participants[i].AmountPaid
	}
	return sum
}

// OwedSum sums amount_owed across participants.
func (w *SplitWallet) OwedSum() float64 {
	var sum float64
	for i := range w.Participants {
		sum += w.Participants[i].AmountOwed
	}
	return sum
}

// AllLocked reports whether every participant has committed their share.
func (w *SplitWallet) AllLocked() bool {
	for i := range w.Participants {
		if w.Participants[i].Status != ParticipantLocked {
			return false
		}
	}
	return len(w.Participants) > 0
}

// AllPaid reports whether every participant has fully paid.
func (w *SplitWallet) AllPaid() bool {
	for i := range w.Participants {
		if w.Participants[i].Status != ParticipantPaid {
			return false
		}
	}
	return len(w.Participants) > 0
}

// Completion is the funding progress snapshot for a wallet.
type Completion struct {
	CollectedAmount      float64 `json:"collected_amount"`
	TotalAmount          float64 `json:"total_amount"`
	RemainingAmount      float64 `json:"remaining_amount"`
	CompletionPercentage float64 `json:"completion_percentage"`
	ParticipantsPaid     int     `json:"participants_paid_count"`
	TotalParticipants    int     `json:"total_participants"`
}
