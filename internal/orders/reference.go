package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const referencePrefix = "YB-"

// GenerateReference produces a customer-facing order reference like
// YB-1A2B3C4D. Uniqueness is enforced by the orders table; callers retry on
// the rare collision.
func GenerateReference() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order reference: %w", err)
	}
	return referencePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
