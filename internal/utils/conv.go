package utils

import (
	"strconv"
)

// ParseID converts a path segment to a positive database id.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
