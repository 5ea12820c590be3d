package mines

import (
	"github.com/shopspring/decimal"
)

// Multiplier for surviving `reveals` safe picks on a grid of `gridSize`
// tiles holding `hazards` mines. Each survived draw multiplies by
// remaining/remainingSafe, the reciprocal of the survival probability
// of that draw, so the game carries no edge beyond payout truncation.
func Multiplier(gridSize, hazards, reveals int) decimal.Decimal {
	if reveals <= 0 {
		return decimal.NewFromInt(1)
	}

	num := decimal.NewFromInt(1)
	den := decimal.NewFromInt(1)

	for i := 0; i < reveals; i++ {
		num = num.Mul(decimal.NewFromInt(int64(gridSize - i)))
		den = den.Mul(decimal.NewFromInt(int64(gridSize - hazards - i)))
	}

	return num.DivRound(den, 12)
}
