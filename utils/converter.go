package utils

import (
	"math"
	"math/big"
)

func WeiToAmount(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}

func AmountToWei(amount float64) *big.Int {
	f := new(big.Float).SetFloat64(amount)
	f.Mul(f, big.NewFloat(1e18))
	wei := new(big.Int)
	f.Int(wei)
	return wei
}

// AmountsEqual compares two amounts within AMOUNT_EPSILON. The tolerance is
// inclusive: the comparison runs on whole cents so a drift of exactly one
// cent still counts as equal despite binary rounding.
func AmountsEqual(a, b float64) bool {
	return math.Round(math.Abs(a-b)*100) <= AMOUNT_EPSILON*100
}

// EqualShare divides total across n participants, rounded to cents.
func EqualShare(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Round(total/float64(n)*100) / 100
}
