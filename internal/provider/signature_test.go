package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignTimestamp(t *testing.T) {
	key := SignTimestamp("shared-salt", "1693526400")

	assert.Len(t, key, 64)
	assert.Equal(t, strings.ToLower(key), key)

	// Same inputs, same key.
	assert.Equal(t, key, SignTimestamp("shared-salt", "1693526400"))

	assert.NotEqual(t, key, SignTimestamp("other-salt", "1693526400"))
	assert.NotEqual(t, key, SignTimestamp("shared-salt", "1693526401"))
}

func TestValidSignature(t *testing.T) {
	key := SignTimestamp("shared-salt", "1693526400")

	assert.True(t, ValidSignature("shared-salt", "1693526400", key))
	assert.True(t, ValidSignature("shared-salt", "1693526400", strings.ToUpper(key)),
		"uppercase hex from the aggregator must still verify")

	assert.False(t, ValidSignature("shared-salt", "1693526400", ""))
	assert.False(t, ValidSignature("shared-salt", "1693526401", key))
	assert.False(t, ValidSignature("wrong-salt", "1693526400", key))
}

func TestEncodeDecodeUsername(t *testing.T) {
	handle := EncodeUsername("gh", 42)
	assert.Equal(t, "gh42", handle)

	id, err := DecodeUsername("gh", handle)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestDecodeUsernameRejectsBadHandles(t *testing.T) {
	cases := []struct {
		name   string
		handle string
	}{
		{name: "missing prefix", handle: "42"},
		{name: "wrong prefix", handle: "xx42"},
		{name: "prefix only", handle: "gh"},
		{name: "non numeric id", handle: "ghabc"},
		{name: "zero id", handle: "gh0"},
		{name: "negative id", handle: "gh-7"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeUsername("gh", tc.handle)
			assert.Error(t, err)
		})
	}
}
