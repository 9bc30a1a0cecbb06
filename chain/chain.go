package chain

import (
	"context"
	"crypto/ecdsa"
)

// LedgerTransferClient executes value transfers on the settlement network.
// It is used for collection (participant -> escrow), settlement
// (escrow -> destination) and refunds (escrow -> participant).
type LedgerTransferClient interface {
	// Transfer moves amount from a custodial address. The signing key is
	// resolved through the Keystore. memo is recorded on the transfer for
	// later reconciliation. Returns the transfer signature.
	Transfer(ctx context.Context, from, to string, amount float64, memo string) (string, error)

	// TransferWithKey moves amount signing directly with the given secret
	// key. Used for escrow-authorized settlement and refunds, where the
	// service holds the decrypted escrow key.
	TransferWithKey(ctx context.Context, secretKeyHex, to string, amount float64, memo string) (string, error)
}

// Keystore resolves a custodial address to its signing key. The actual
// key-derivation/recovery layer behind it is external to this service.
type Keystore interface {
	SigningKey(ctx context.Context, address string) (*ecdsa.PrivateKey, error)
}
