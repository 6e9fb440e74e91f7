//go:build pam && cgo

package identity

import (
	"errors"
	"fmt"

	"github.com/msteinert/pam/v2"
)

var pamAuthenticate = authenticatePAM

// rejections are PAM results that mean the credentials were refused
// rather than that the service failed.
var rejections = []error{
	pam.ErrAuth,
	pam.ErrUserUnknown,
	pam.ErrPermDenied,
	pam.ErrAcctExpired,
	pam.ErrMaxtries,
	pam.ErrCredInsufficient,
}

func authenticatePAM(service, username, password string) (bool, error) {
	tx, err := pam.StartFunc(service, username, func(style pam.Style, msg string) (string, error) {
		switch style {
		case pam.PromptEchoOff:
			return password, nil
		case pam.PromptEchoOn:
			return username, nil
		case pam.ErrorMsg, pam.TextInfo:
			return "", nil
		default:
			return "", fmt.Errorf("unsupported conversation style %d", style)
		}
	})
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.End()

	if err := tx.Authenticate(0); err != nil {
		return rejected(err)
	}
	if err := tx.AcctMgmt(0); err != nil {
		return rejected(err)
	}
	return true, nil
}

func rejected(err error) (bool, error) {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return false, nil
		}
	}
	return false, err
}
