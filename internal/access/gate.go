// Package access enforces who may touch which position. Authentication
// (who is calling) and authorization (which investor keys the caller may
// act for) are distinct failures so the API can answer 401 versus 403.
package access

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrUnauthorized means the caller presented no valid identity.
	ErrUnauthorized = errors.New("unauthorized: no valid identity")

	// ErrForbidden means the identity is valid but not entitled to the
	// requested investor key or operation.
	ErrForbidden = errors.New("forbidden: identity not entitled to this resource")

	// ErrInvalidAddress means the investor address is malformed.
	ErrInvalidAddress = errors.New("invalid investor address")
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidateAddress checks the 0x-prefixed 40-hex-digit wallet format
func ValidateAddress(address string) error {
	if !addressPattern.MatchString(address) {
		return ErrInvalidAddress
	}
	return nil
}

// NormalizeAddress lowercases a wallet address to its canonical form
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}

// Identity is an authenticated caller: a user plus the wallet addresses
// bound to it by the auth subsystem.
type Identity struct {
	UserID    string
	Username  string
	Admin     bool
	Addresses []string
}

// Owns reports whether the identity is bound to the address,
// case-insensitively.
func (i *Identity) Owns(address string) bool {
	address = NormalizeAddress(address)
	for _, a := range i.Addresses {
		if NormalizeAddress(a) == address {
			return true
		}
	}
	return false
}

// Gate decides access for ledger and portfolio operations. Deny is the
// default: every check must find an explicit entitlement.
type Gate struct{}

// NewGate creates a new access gate
func NewGate() *Gate {
	return &Gate{}
}

// AuthorizeInvestor allows an operation on a position or portfolio only
// when the caller's identity is bound to the investor address.
func (g *Gate) AuthorizeInvestor(identity *Identity, address string) error {
	if identity == nil {
		return ErrUnauthorized
	}
	if !identity.Owns(address) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeAdmin allows bond administration operations
func (g *Gate) AuthorizeAdmin(identity *Identity) error {
	if identity == nil {
		return ErrUnauthorized
	}
	if !identity.Admin {
		return ErrForbidden
	}
	return nil
}
