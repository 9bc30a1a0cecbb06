package request

type ParticipantShareReq struct {
	UserID        string  `json:"user_id" binding:"required"`
	Name          string  `json:"name"`
	WalletAddress string  `json:"wallet_address"`
	AmountOwed    float64 `json:"amount_owed"`
}

type CreateSplitWalletReq struct {
	BillID       string                `json:"bill_id" binding:"required"`
	CreatorID    string                `json:"creator_id" binding:"required"`
	TotalAmount  float64               `json:"total_amount" binding:"required"`
	Currency     string                `json:"currency" binding:"required"`
	Participants []ParticipantShareReq `json:"participants" binding:"required"`
}

type LockAmountReq struct {
	UserID string  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

type PayShareReq struct {
	UserID string  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

type SettleReq struct {
	DestinationAddress string `json:"destination_address" binding:"required"`
	Description        string `json:"description"`
}

type CancelReq struct {
	Reason string `json:"reason"`
}

type JoinSplitReq struct {
	UserID string `json:"user_id" binding:"required"`
}

type MigrateTotalReq struct {
	ExpectedTotal float64 `json:"expected_total" binding:"required"`
}
