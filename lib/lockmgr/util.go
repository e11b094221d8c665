package lockmgr

import (
	"crypto/rand"
)

const (
	ownerIDLength = 32
)

// generateOwnerID creates a new unique owner ID (256 random bits)
func generateOwnerID() ([]byte, error) {
	randomBytes := make([]byte, ownerIDLength)
	_, err := rand.Read(randomBytes)
	return randomBytes, err
}
