package common

import (
	"regexp"
	"strconv"
)

// DefaultMaxTransactionID is the policy upper bound for identifiers accepted from clients.
// It is deliberately tighter than the SERIAL key space.
const DefaultMaxTransactionID = 999999

var canonicalPositiveInt = regexp.MustCompile(`^[1-9][0-9]*$`)

// ValidTransactionID reports whether raw is a canonical positive integer literal
// (no sign, no leading zeros, no whitespace) within [1, max].
func ValidTransactionID(raw string, max int) bool {
	if !canonicalPositiveInt.MatchString(raw) {
		return false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	return id >= 1 && id <= max
}
