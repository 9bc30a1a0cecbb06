package domain

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEscrowWallet(t *testing.T) {
	identity, err := NewProvisioner().CreateEscrowWallet()
	require.NoError(t, err)

	assert.True(t, common.IsHexAddress(identity.Address))

	// secret key parses and matches the advertised address
	priv, err := crypto.HexToECDSA(identity.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, identity.Address, crypto.PubkeyToAddress(priv.PublicKey).Hex())

	pub, err := hex.DecodeString(identity.PublicKey)
	require.NoError(t, err)
	assert.NotEmpty(t, pub)
}

func TestCreateEscrowWallet_IdentitiesNeverRepeat(t *testing.T) {
	prov := NewProvisioner()
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		identity, err := prov.CreateEscrowWallet()
		require.NoError(t, err)
		assert.False(t, seen[identity.Address], "escrow address reused")
		seen[identity.Address] = true
	}
}
