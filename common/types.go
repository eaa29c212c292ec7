// Package common contains the shared value types of the rental resolver,
// most importantly the 32-byte account Address used across all on-chain
// records.
package common

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the expected length of an account address in bytes.
const AddressLength = 32

// Address represents the 32-byte address of an on-chain account.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// Base58ToAddress decodes a base58-encoded address string.
func Base58ToAddress(s string) (Address, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid base58 address %q: %w", s, err)
	}
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("invalid address length %d for %q", len(b), s)
	}
	return BytesToAddress(b), nil
}

// MustBase58ToAddress decodes a base58-encoded address string.
// It panics on invalid input and is intended for hard-coded program
// identities and tests.
func MustBase58ToAddress(s string) Address {
	a, err := Base58ToAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// SetBytes sets the address to the value of b.
// If b is larger than len(a), b will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// String implements fmt.Stringer, returning the base58 form.
func (a Address) String() string { return base58.Encode(a[:]) }

// IsZero reports whether the address is the all-zero address. The zero
// address is used as the "absent reference" sentinel throughout the record
// layouts.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting base58.
func (a *Address) UnmarshalText(input []byte) error {
	dec, err := Base58ToAddress(string(input))
	if err != nil {
		return err
	}
	*a = dec
	return nil
}

// AddressSliceContains reports whether needle occurs in haystack.
func AddressSliceContains(haystack []Address, needle Address) bool {
	for _, a := range haystack {
		if a == needle {
			return true
		}
	}
	return false
}
