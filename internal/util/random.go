// Package util provides small shared utilities for caseflow.
package util

import "math/rand/v2"

const hexChars = "0123456789abcdef"

// GenerateRandomID returns a random identifier in the form
// "{prefix}{hex}", used for correlating log lines (bootstrap and timer IDs).
// Not cryptographic.
func GenerateRandomID(prefix string, hexLength int) string {
	buf := make([]byte, 0, len(prefix)+hexLength)
	buf = append(buf, prefix...)
	for i := 0; i < hexLength; i++ {
		buf = append(buf, hexChars[rand.IntN(16)])
	}
	return string(buf)
}
