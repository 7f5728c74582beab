package security

import "time"

// Test signing keys for unit tests only. Do not use in production.
const (
	testAccessKey  = "test-access-signing-key-0123456789abcdef"
	testRefreshKey = "test-refresh-signing-key-0123456789abcdef"
)

// NewTestTokenCodec returns a TokenCodec using fixed test keys.
// For unit tests only. Callers must not use in production.
func NewTestTokenCodec() (*TokenCodec, error) {
	return NewTokenCodec([]byte(testAccessKey), []byte(testRefreshKey), "test-issuer", 15*time.Minute, 24*time.Hour)
}
