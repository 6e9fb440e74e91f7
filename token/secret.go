package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

// RecommendedSecretLength is the minimum secret size we consider safe.
const RecommendedSecretLength = 40

// ErrSecretNotFound is returned when the shared secret file does not exist
var ErrSecretNotFound = errors.New("shared secret file does not exist")

// SecretInfo describes a loaded secret without exposing it.
type SecretInfo struct {
	Length int
	// Exposed is true when group or other users can read the file.
	Exposed bool
}

// LoadSecret reads the shared secret file. The contents are used verbatim
// (including any trailing newline) so every service sharing the file
// derives the same key.
func LoadSecret(path string) ([]byte, SecretInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, SecretInfo{}, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		return nil, SecretInfo{}, fmt.Errorf("failed to stat shared secret: %w", err)
	}

	secret, err := os.ReadFile(path)
	if err != nil {
		return nil, SecretInfo{}, fmt.Errorf("failed to read shared secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, SecretInfo{}, fmt.Errorf("%w: %s", ErrEmptySecret, path)
	}

	return secret, SecretInfo{
		Length:  len(secret),
		Exposed: info.Mode().Perm()&0o077 != 0,
	}, nil
}

// GenerateSecret writes a new random hex secret of the given length to
// path with owner-only permissions. Existing files are not overwritten.
func GenerateSecret(path string, length int) error {
	if length < RecommendedSecretLength {
		length = RecommendedSecretLength
	}

	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	secret := hex.EncodeToString(buf)[:length]

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create secret file: %w", err)
	}
	if _, err := f.WriteString(secret); err != nil {
		f.Close()
		return fmt.Errorf("failed to write secret file: %w", err)
	}
	return f.Close()
}
