package utils

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// RandBytes returns n cryptographically random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandString returns a hex string of n random bytes (2n characters).
func RandString(n int) (string, error) {
	b, err := RandBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NowUTC returns the current time in UTC truncated to the second.
// All persisted timestamps go through here so that values survive a
// round-trip through the database without precision drift.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
