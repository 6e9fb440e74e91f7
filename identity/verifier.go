// Package identity verifies credentials and resolves the display identity
// of authenticated users.
package identity

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a username/password pair. A wrong password is reported
// as (false, nil); an error means the provider itself could not answer.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// entry is one line of the credentials file
type entry struct {
	hash  string
	gecos string
}

// FileVerifier checks credentials against a file of
// "username:hash[:full name]" lines. The file is re-read on every call so
// edits take effect without a restart.
type FileVerifier struct {
	path string
	// dummy is compared against when the user is unknown, so that the
	// response time does not reveal which usernames exist.
	dummy []byte
}

// NewFileVerifier creates a verifier for the credentials file at path.
func NewFileVerifier(path string) (*FileVerifier, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("login-api-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare verifier: %w", err)
	}
	return &FileVerifier{path: path, dummy: dummy}, nil
}

// Path returns the credentials file location
func (v *FileVerifier) Path() string {
	return v.path
}

// Verify implements Verifier
func (v *FileVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	entries, err := v.load()
	if err != nil {
		return false, err
	}

	e, ok := entries[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(password))
		return false, nil
	}

	match, err := comparePassword(e.hash, password)
	if err != nil {
		return false, fmt.Errorf("credentials for %q: %w", username, err)
	}
	return match, nil
}

// Lookup implements Directory using the optional third column.
func (v *FileVerifier) Lookup(ctx context.Context, username string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := v.load()
	if err != nil {
		return nil, err
	}
	e, ok := entries[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrincipal, username)
	}
	return &Principal{Username: username, DisplayName: DisplayNameFromGECOS(e.gecos)}, nil
}

// Check reports whether the credentials file can be read and parsed
func (v *FileVerifier) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := v.load()
	return err
}

func (v *FileVerifier) load() (map[string]entry, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return parseCredentials(data)
}

func parseCredentials(data []byte) (map[string]entry, error) {
	entries := make(map[string]entry)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, ":", 3)
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("credentials file line %d: expected username:hash", lineNo)
		}

		e := entry{hash: fields[1]}
		if len(fields) == 3 {
			e.gecos = fields[2]
		}
		entries[fields[0]] = e
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan credentials file: %w", err)
	}
	return entries, nil
}
