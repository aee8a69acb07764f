package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint returns the SHA-256 of the world's canonical JSON encoding.
// Struct fields encode in declaration order, so equal worlds hash equally.
// UpdatedAt is excluded so that a save without changes keeps the fingerprint.
func (w *World) Fingerprint() (string, error) {
	shadow := *w
	shadow.UpdatedAt = w.CreatedAt
	data, err := json.Marshal(&shadow)
	if err != nil {
		return "", fmt.Errorf("failed to serialize world %s: %w", w.ID, err)
	}
	return hashData(data), nil
}

func hashData(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
