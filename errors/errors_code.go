package errors

type Code string

const (
	CodeUnknown Code = "UNKNOWN_ERROR"

	// Wallet / participant resolution
	CodeNotFound Code = "NOT_FOUND"

	// Business rule rejections
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeWalletState       Code = "WALLET_STATE_ERROR"

	// External collaborators
	CodeTransferFailure Code = "TRANSFER_FAILURE"
	CodeProvisioning    Code = "PROVISIONING_ERROR"
	CodeStorage         Code = "STORAGE_ERROR"
	CodeVersionConflict Code = "VERSION_CONFLICT"

	// Repair layer
	CodeDataCorruption Code = "DATA_CORRUPTION"

	// Chain-level details kept from the transfer client
	CodeChainRPC   Code = "CHAIN_RPC_ERROR"
	PendingNonceAt Code = "PENDING_NONCE_AT_ERROR"
	DailChain      Code = "DIAL_CHAIN_ERROR"
	SignerErr      Code = "SIGNER_ERROR"
	SendTxErr      Code = "SEND_TX_ERROR"
	GetchainIDErr  Code = "GET_CHAIN_ID_ERROR"
)
