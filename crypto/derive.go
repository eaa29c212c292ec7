// Package crypto implements program-derived address computation for
// program-owned record accounts. A derived address is a SHA-256 digest of a
// seed list, a bump byte and the owning program's identity; only digests
// that do not decode to a valid ed25519 curve point are acceptable, which is
// what guarantees the address has no corresponding private key.
package crypto

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"

	"github.com/solana-nft-programs/rental-resolver/common"
)

const (
	// MaxSeedLength is the maximum byte length of a single derivation seed.
	MaxSeedLength = 32

	// MaxSeeds is the maximum number of seeds in one derivation.
	MaxSeeds = 16

	deriveMarker = "ProgramDerivedAddress"
)

var (
	ErrSeedTooLong   = errors.New("derivation seed exceeds maximum length")
	ErrTooManySeeds  = errors.New("too many derivation seeds")
	ErrOnCurve       = errors.New("derived address is on the ed25519 curve")
	ErrNoValidBump   = errors.New("no valid bump for seed set")
	errInvalidDigest = errors.New("digest is not a valid address")
)

// CreateProgramAddress computes the address for the given seeds, which must
// already include a bump byte. It fails with ErrOnCurve if the digest decodes
// to a valid curve point.
func CreateProgramAddress(seeds [][]byte, program common.Address) (common.Address, error) {
	if len(seeds) > MaxSeeds {
		return common.Address{}, ErrTooManySeeds
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return common.Address{}, ErrSeedTooLong
		}
		h.Write(seed)
	}
	h.Write(program.Bytes())
	h.Write([]byte(deriveMarker))
	digest := h.Sum(nil)
	if isOnCurve(digest) {
		return common.Address{}, ErrOnCurve
	}
	return common.BytesToAddress(digest), nil
}

// FindProgramAddress finds the canonical derived address for the seed set by
// searching bump bytes downward from 255 until an off-curve digest is found.
// The returned bump makes the derivation reproducible.
func FindProgramAddress(seeds [][]byte, program common.Address) (common.Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateProgramAddress(append(seeds, []byte{byte(bump)}), program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return common.Address{}, 0, err
		}
	}
	return common.Address{}, 0, ErrNoValidBump
}

// isOnCurve reports whether b is a valid compressed ed25519 point.
func isOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
