package entity

import "time"

// Split is the bill-split description aggregate. It lives in its own
// collection and is kept eventually consistent with the SplitWallet
// by the join coordinator.
type Split struct {
	ID             string    `bson:"id" json:"id"`
	Title          string    `bson:"title" json:"title"`
	CreatorID      string    `bson:"creator_id" json:"creator_id"`
	TotalAmount    float64   `bson:"total_amount" json:"total_amount"`
	Currency       string    `bson:"currency" json:"currency"`
	ParticipantIDs []string  `bson:"participant_ids" json:"participant_ids"`
	WalletID       string    `bson:"wallet_id" json:"wallet_id"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}
