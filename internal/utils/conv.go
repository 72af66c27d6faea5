package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a positive database id from a path or form value.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// ParseIDs parses every valid id in values, skipping the rest.
func ParseIDs(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		if id, ok := ParseID(v); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
