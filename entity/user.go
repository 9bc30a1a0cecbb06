package entity

import "time"

// UserProfile resolves a user id to a display name and settlement address
// when a participant joins a split.
type UserProfile struct {
	UserID        string    `bson:"user_id" json:"user_id"`
	DisplayName   string    `bson:"display_name" json:"display_name"`
	WalletAddress string    `bson:"wallet_address" json:"wallet_address"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
