//go:build !(pam && cgo)

package identity

// pamAuthenticate is nil without PAM support
var pamAuthenticate func(service, username, password string) (bool, error)
