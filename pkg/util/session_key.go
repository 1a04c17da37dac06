package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// sessionKeyBytes gives 256 bits of entropy, rendered as 64 hex characters.
const sessionKeyBytes = 32

// GenerateSessionKey returns an unguessable opaque key for guest sessions.
func GenerateSessionKey() (string, error) {
	buf := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
