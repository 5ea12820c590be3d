package model

import "time"

// SeedPair is a user's provably-fair seed state. ServerSeed stays
// secret while the pair is live; only ServerSeedHash is shown. Retiring
// the pair (rotation) reveals the secret so past outcomes can be
// recomputed by anyone.
type SeedPair struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ServerSeed     string    `json:"-"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed"`
	Nonce          int64     `json:"nonce"`
	Retired        bool      `json:"retired"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
