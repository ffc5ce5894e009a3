// Package wallet validates Solana wallet addresses.
package wallet

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrMissingAddress = errors.New("wallet address required")
	ErrInvalidAddress = errors.New("invalid solana address format")
)

var addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// Validate checks that address is a base58 string of plausible length that
// decodes to a 32-byte public key.
func Validate(address string) error {
	if address == "" {
		return ErrMissingAddress
	}
	if !addressPattern.MatchString(address) {
		return ErrInvalidAddress
	}
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

// IsValid reports whether Validate accepts address.
func IsValid(address string) bool {
	return Validate(address) == nil
}
