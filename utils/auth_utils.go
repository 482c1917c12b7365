package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// GenerateOTPCode generates a numeric one-time passcode of the given length.
func GenerateOTPCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// GeneratePublishTargetName derives a globally-unique publish target name by
// combining the owner id with a high-resolution timestamp.
// Example: "site-41fa9c-1712345678901"
func GeneratePublishTargetName(ownerID string) string {
	shortOwner := ownerID
	if len(shortOwner) > 6 {
		shortOwner = shortOwner[len(shortOwner)-6:]
	}
	return fmt.Sprintf("site-%s-%d", strings.ToLower(shortOwner), time.Now().UnixMilli())
}
