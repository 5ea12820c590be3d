package provider

import (
	"fmt"
	"strconv"
	"strings"
)

// The aggregator identifies players by an opaque handle we hand out at
// game launch. The handle deterministically encodes the internal user
// id as prefix + decimal id, so callbacks resolve without a lookup
// table.

func EncodeUsername(prefix string, userID int64) string {
	return fmt.Sprintf("%s%d", prefix, userID)
}

func DecodeUsername(prefix, username string) (int64, error) {
	raw, found := strings.CutPrefix(username, prefix)
	if !found || raw == "" {
		return 0, fmt.Errorf("provider: handle %q lacks prefix %q", username, prefix)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("provider: handle %q has no valid user id", username)
	}

	return id, nil
}
