package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir is where docker secrets are mounted.
var SecretsDir = "/run/secrets"

// ErrSecretMissing is returned by ReadSecret when the secret file does not exist.
var ErrSecretMissing = errors.New("secret not found")

// ReadSecret reads a docker secret by name and trims surrounding whitespace.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSecretMissing, filePath)
		}
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadOptionalSecret returns an empty string when the secret is not mounted.
// Any other read failure is still reported.
func ReadOptionalSecret(secretName string) (string, error) {
	secret, err := ReadSecret(secretName)
	if errors.Is(err, ErrSecretMissing) {
		return "", nil
	}
	return secret, err
}
