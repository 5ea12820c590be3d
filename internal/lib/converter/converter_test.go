package converter

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorToMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"10", 1000},
		{"10.25", 1025},
		{"0.01", 1},
		{"1000000", 100000000},
	}

	for _, tc := range cases {
		got, err := MajorToMinor(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestMajorToMinorRejectsSubCent(t *testing.T) {
	_, err := MajorToMinor("0.001")
	assert.Error(t, err)

	_, err = MajorToMinor("not-a-number")
	assert.Error(t, err)
}

func TestMinorToMajor(t *testing.T) {
	assert.Equal(t, "10.25", MinorToMajor(1025))
	assert.Equal(t, "0.01", MinorToMajor(1))
	assert.Equal(t, "0.00", MinorToMajor(0))
}

func TestApplyMultiplierRoundsDown(t *testing.T) {
	m := decimal.RequireFromString("1.0434782608")

	// 1000 × 1.0434782608 = 1043.47..., house keeps the fraction.
	assert.Equal(t, int64(1043), ApplyMultiplier(1000, m))

	assert.Equal(t, int64(2000), ApplyMultiplier(1000, decimal.NewFromInt(2)))
	assert.Equal(t, int64(0), ApplyMultiplier(1000, decimal.Zero))
}
