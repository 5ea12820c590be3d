package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignTimestamp derives the callback key the aggregator sends: a hex
// HMAC-SHA256 of the request timestamp keyed by the shared salt.
func SignTimestamp(salt, timestamp string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(timestamp))

	return hex.EncodeToString(h.Sum(nil))
}

// ValidSignature compares in constant time.
func ValidSignature(salt, timestamp, key string) bool {
	want := SignTimestamp(salt, timestamp)

	return hmac.Equal([]byte(want), []byte(strings.ToLower(key)))
}
