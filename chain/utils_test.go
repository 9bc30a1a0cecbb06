package chain

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDerivationPath(t *testing.T) {
	indices, err := parseDerivationPath("m/44'/60'/0'/0/0")
	require.NoError(t, err)
	h := uint32(hdkeychain.HardenedKeyStart)
	assert.Equal(t, []uint32{44 + h, 60 + h, 0 + h, 0, 0}, indices)
}

func TestParseDerivationPath_Rejections(t *testing.T) {
	for _, path := range []string{"", "44'/60'", "m/abc", "m/-1"} {
		_, err := parseDerivationPath(path)
		assert.Error(t, err, "path %q should be rejected", path)
	}
}
