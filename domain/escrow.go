package domain

import (
	"encoding/hex"
	"fmt"

	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/splitpay/split_wallet_service/chain"
	"github.com/splitpay/split_wallet_service/utils"
)

// EscrowIdentity is a freshly minted custodial keypair for one split.
// SecretKey is hex-encoded and must be sealed before persisting.
type EscrowIdentity struct {
	Address   string
	PublicKey string
	SecretKey string
}

// Provisioner mints escrow keypairs. Every split gets its own entropy, so
// an escrow identity is never shared with a participant's personal wallet
// or reused across splits.
type Provisioner struct{}

func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

/*
CreateEscrowWallet generates a dedicated keypair for a split:
entropy -> BIP39 mnemonic -> seed -> BIP-44 derivation at the fixed
escrow path. The mnemonic is intentionally discarded; recovery of an
escrow key goes through the sealed copy on the wallet document, not
through a seed phrase.
*/
func (p *Provisioner) CreateEscrowWallet() (*EscrowIdentity, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	seed := bip39.NewSeed(mnemonic, "")
	defer clearBytes(seed)

	priv, address, err := chain.DeriveKeypair(seed, utils.ESCROW_DERIVATION_PATH)
	if err != nil {
		return nil, fmt.Errorf("failed to derive escrow keypair: %w", err)
	}

	return &EscrowIdentity{
		Address:   address,
		PublicKey: hex.EncodeToString(crypto.FromECDSAPub(&priv.PublicKey)),
		SecretKey: hex.EncodeToString(crypto.FromECDSA(priv)),
	}, nil
}
