package fair

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// Outcome derivation for the in-house games. Everything here is a pure
// function of (serverSeed, clientSeed, nonce): no clock, no global
// randomness. After a seed pair is retired and its secret revealed,
// anyone can recompute every stored outcome with these same functions.

// TotalWeight is the partition size for weighted category draws.
const TotalWeight = 10000

// HashSeed is the public commitment to a secret server seed.
func HashSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))

	return hex.EncodeToString(sum[:])
}

func digest(serverSeed, clientSeed string, nonce int64, block int) []byte {
	h := hmac.New(sha512.New, []byte(serverSeed))

	if block == 0 {
		fmt.Fprintf(h, "%s-%d", clientSeed, nonce)
	} else {
		fmt.Fprintf(h, "%s-%d-%d", clientSeed, nonce, block)
	}

	return h.Sum(nil)
}

// Roll maps the seed triple onto [0, TotalWeight). The first five hex
// characters of the digest give 20 bits, reduced mod 10000.
func Roll(serverSeed, clientSeed string, nonce int64) int64 {
	hash := hex.EncodeToString(digest(serverSeed, clientSeed, nonce, 0))

	decimal, err := strconv.ParseInt(hash[:5], 16, 64)
	if err != nil {
		// five hex chars always parse
		panic(err)
	}

	return decimal % TotalWeight
}

// DrawCategory picks the index of the weighted band containing the
// roll. Weights must sum to TotalWeight.
func DrawCategory(serverSeed, clientSeed string, nonce int64, weights []int64) int {
	var total int64
	for _, w := range weights {
		total += w
	}

	if total != TotalWeight {
		panic(fmt.Sprintf("fair: weights sum to %d, want %d", total, TotalWeight))
	}

	roll := Roll(serverSeed, clientSeed, nonce)

	var cumulative int64

	for i, w := range weights {
		cumulative += w

		if roll < cumulative {
			return i
		}
	}

	return len(weights) - 1
}

// stream yields uniform integers from successive HMAC blocks of the
// same seed triple.
type stream struct {
	serverSeed string
	clientSeed string
	nonce      int64
	block      int
	buf        []byte
	cursor     int
}

func newStream(serverSeed, clientSeed string, nonce int64) *stream {
	return &stream{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
		nonce:      nonce,
		buf:        digest(serverSeed, clientSeed, nonce, 0),
	}
}

func (s *stream) nextUint32() uint32 {
	if s.cursor+4 > len(s.buf) {
		s.block++
		s.buf = digest(s.serverSeed, s.clientSeed, s.nonce, s.block)
		s.cursor = 0
	}

	v := binary.BigEndian.Uint32(s.buf[s.cursor:])
	s.cursor += 4

	return v
}

// uniform returns an unbiased integer in [0, n) via rejection sampling.
func (s *stream) uniform(n int) int {
	if n <= 0 {
		panic("fair: uniform range must be positive")
	}

	bound := uint32((1 << 32) / uint64(n) * uint64(n))

	for {
		v := s.nextUint32()
		if v < bound || bound == 0 {
			return int(v % uint32(n))
		}
	}
}

// DrawPositions draws k distinct positions from [0, n) by a partial
// Fisher–Yates shuffle indexed from the hash stream. The result is
// sorted so storage has one canonical form.
func DrawPositions(serverSeed, clientSeed string, nonce int64, n, k int) []int {
	if k < 0 || k > n {
		panic(fmt.Sprintf("fair: cannot draw %d of %d positions", k, n))
	}

	s := newStream(serverSeed, clientSeed, nonce)

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	for i := 0; i < k; i++ {
		j := i + s.uniform(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}

	positions := make([]int, k)
	copy(positions, perm[:k])
	sort.Ints(positions)

	return positions
}

// VerifyCategory recomputes a category draw from a revealed seed and
// reports whether it matches the stored outcome.
func VerifyCategory(serverSeed, clientSeed string, nonce int64, weights []int64, category int) bool {
	return DrawCategory(serverSeed, clientSeed, nonce, weights) == category
}

// VerifyPositions recomputes a position draw from a revealed seed.
func VerifyPositions(serverSeed, clientSeed string, nonce int64, n int, positions []int) bool {
	derived := DrawPositions(serverSeed, clientSeed, nonce, n, len(positions))

	for i := range derived {
		if derived[i] != positions[i] {
			return false
		}
	}

	return true
}
