package chain

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"

	wrapErrors "github.com/splitpay/split_wallet_service/errors"
)

// StaticKeystore resolves custodial signing keys from an in-memory map of
// address -> hex secret key. It stands in for the external key-recovery
// service in development and tests.
type StaticKeystore struct {
	keys map[string]string
}

func NewStaticKeystore(keys map[string]string) *StaticKeystore {
	return &StaticKeystore{keys: keys}
}

func (k *StaticKeystore) SigningKey(_ context.Context, address string) (*ecdsa.PrivateKey, error) {
	hexKey, ok := k.keys[address]
	if !ok {
		return nil, wrapErrors.Newf(wrapErrors.SignerErr, "static keystore", "no key for address %s", address)
	}
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "static keystore", err)
	}
	return priv, nil
}
