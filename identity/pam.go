package identity

import (
	"context"
	"errors"
	"fmt"
)

// ErrPAMUnavailable is returned when the binary was built without PAM.
// Build with cgo and the "pam" tag to enable it.
var ErrPAMUnavailable = errors.New("pam support is not compiled in")

// PAMVerifier checks credentials through a PAM service, typically paired
// with SystemDirectory.
type PAMVerifier struct {
	service      string
	authenticate func(service, username, password string) (bool, error)
}

// NewPAMVerifier creates a verifier for the named PAM service.
func NewPAMVerifier(service string) (*PAMVerifier, error) {
	if service == "" {
		return nil, errors.New("pam service is required")
	}
	if pamAuthenticate == nil {
		return nil, ErrPAMUnavailable
	}
	return &PAMVerifier{service: service, authenticate: pamAuthenticate}, nil
}

// Service returns the PAM service name
func (v *PAMVerifier) Service() string {
	return v.service
}

// Verify implements Verifier. PAM modules may stall on purpose after a
// failure, so the call gives up when ctx is done.
func (v *PAMVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := v.authenticate(v.service, username, password)
		done <- result{ok, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return false, fmt.Errorf("pam service %q: %w", v.service, res.err)
		}
		return res.ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
