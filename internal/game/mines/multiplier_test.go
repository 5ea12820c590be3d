package mines

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMultiplierSingleHazardThreeReveals(t *testing.T) {
	// 25 tiles, 1 hazard, 3 survived reveals:
	// 25/24 × 24/23 × 23/22 = 25/22.
	want := decimal.NewFromInt(25).DivRound(decimal.NewFromInt(22), 12)

	got := Multiplier(25, 1, 3)

	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestMultiplierIsSurvivalReciprocal(t *testing.T) {
	// One reveal with h hazards on n tiles pays n/(n-h).
	cases := []struct {
		grid, hazards, reveals int
		want                   string
	}{
		{25, 24, 1, "25"},           // only one safe tile
		{25, 1, 24, "25"},           // full clear of a single-hazard board: 25!/(24!·1) telescopes to 25
		{25, 5, 1, "1.25"},          // 25/20
		{25, 12, 2, "3.846153846154"}, // 600/156 = 50/13 rounded to 12 places
	}

	for _, tc := range cases {
		want := decimal.RequireFromString(tc.want)
		got := Multiplier(tc.grid, tc.hazards, tc.reveals)

		assert.True(t, want.Equal(got), "grid=%d h=%d r=%d: want %s got %s",
			tc.grid, tc.hazards, tc.reveals, want, got)
	}
}

func TestMultiplierZeroReveals(t *testing.T) {
	assert.True(t, decimal.NewFromInt(1).Equal(Multiplier(25, 3, 0)))
}

func TestMultiplierMonotonicInReveals(t *testing.T) {
	prev := decimal.NewFromInt(1)

	for r := 1; r <= 20; r++ {
		m := Multiplier(25, 5, r)
		assert.True(t, m.GreaterThan(prev), "reveal %d did not raise the multiplier", r)
		prev = m
	}
}
