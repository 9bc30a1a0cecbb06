package chain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// parseDerivationPath turns "m/44'/60'/0'/0/0" into hdkeychain indices,
// applying the hardened offset for apostrophe-marked levels.
func parseDerivationPath(path string) ([]uint32, error) {
	rest, ok := strings.CutPrefix(path, "m/")
	if !ok {
		return nil, errors.New("derivation path must start with m/")
	}

	parts := strings.Split(rest, "/")
	indices := make([]uint32, 0, len(parts))
	for _, p := range parts {
		hardened := strings.HasSuffix(p, "'")
		p = strings.TrimSuffix(p, "'")

		num, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		if num < 0 {
			return nil, errors.New("negative index not allowed")
		}
		if hardened {
			num += hdkeychain.HardenedKeyStart
		}
		indices = append(indices, uint32(num))
	}
	return indices, nil
}
