package config

type Game string

const (
	Wheel    Game = "wheel"
	Mines    Game = "mines"
	Provider Game = "provider"
)

type BalanceType string

const (
	Income  BalanceType = "income"
	Outcome BalanceType = "outcome"
)

type Color string

const (
	Red   Color = "red"
	Black Color = "black"
	Green Color = "green"
)

// WheelTotalWeight is the size of the fairness partition: color weights
// must sum to it exactly.
const WheelTotalWeight = 10000

type WheelColorConfig struct {
	Weight     int64
	Multiplier int64
	// HouseEdgeBP is the expected house retention in basis points,
	// 10000 - weight × multiplier / (total / 10000).
	HouseEdgeBP int64
}

type WheelGameConfig struct {
	// Order fixes the mapping from the drawn partition to a color and
	// must never be reordered once rounds exist.
	Order  []Color
	Colors map[Color]WheelColorConfig
}

var WheelConfig = WheelGameConfig{
	Order: []Color{Red, Black, Green},
	Colors: map[Color]WheelColorConfig{
		Red: {
			Weight:      4660,
			Multiplier:  2,
			HouseEdgeBP: 680,
		},
		Black: {
			Weight:      4660,
			Multiplier:  2,
			HouseEdgeBP: 680,
		},
		Green: {
			Weight:      680,
			Multiplier:  14,
			HouseEdgeBP: 480,
		},
	},
}

// Opposing reports whether two wheel colors cannot be held by one user
// in the same round.
func Opposing(a, b Color) bool {
	return (a == Red && b == Black) || (a == Black && b == Red)
}

type MinesGameConfig struct {
	GridSize   int
	MinHazards int
	MaxHazards int
	MinStake   int64
	MaxStake   int64
}

var MinesConfig = MinesGameConfig{
	GridSize:   25,
	MinHazards: 1,
	MaxHazards: 24,
	MinStake:   1,          // one cent
	MaxStake:   1000000000, // ten million major units
}
