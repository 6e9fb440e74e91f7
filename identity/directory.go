package identity

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strings"
)

// ErrUnknownPrincipal is returned when the directory has no such user
var ErrUnknownPrincipal = errors.New("unknown principal")

// Principal is the display identity of an authenticated user.
type Principal struct {
	Username    string
	DisplayName string
}

// Directory resolves a verified username to its principal.
type Directory interface {
	Lookup(ctx context.Context, username string) (*Principal, error)
}

// DisplayNameFromGECOS returns the first comma-separated segment of a
// GECOS "full name" field.
func DisplayNameFromGECOS(gecos string) string {
	name, _, _ := strings.Cut(gecos, ",")
	return name
}

// SystemDirectory resolves principals from the host account database.
type SystemDirectory struct {
	lookup func(string) (*user.User, error)
}

// NewSystemDirectory creates a directory backed by os/user
func NewSystemDirectory() *SystemDirectory {
	return &SystemDirectory{lookup: user.Lookup}
}

// Lookup implements Directory
func (d *SystemDirectory) Lookup(ctx context.Context, username string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := d.lookup(username)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPrincipal, username)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return &Principal{
		Username:    u.Username,
		DisplayName: DisplayNameFromGECOS(u.Name),
	}, nil
}

// StaticDirectory is a fixed, in-memory directory keyed by username. The
// values are GECOS-style full names.
type StaticDirectory map[string]string

// Lookup implements Directory
func (d StaticDirectory) Lookup(_ context.Context, username string) (*Principal, error) {
	gecos, ok := d[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrincipal, username)
	}
	return &Principal{Username: username, DisplayName: DisplayNameFromGECOS(gecos)}, nil
}
