// Package economics derives the UI-facing numbers of a rental — listing
// price, effective duration, normalized rate — from a TokenData aggregate.
// Raw on-chain amounts are fixed-point integers; all arithmetic that could
// overflow or lose precision runs on 256-bit integers, and floating point
// appears only at the final display conversion.
package economics

import (
	"math"
	"math/big"
	"sync"

	"github.com/holiman/uint256"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/params"
)

// DecimalAmount converts a raw fixed-point amount to its decimal value.
func DecimalAmount(raw uint64, decimals uint8) float64 {
	return float64(raw) / math.Pow10(int(decimals))
}

// NaturalUnits converts a decimal amount to raw fixed-point units.
func NaturalUnits(amount float64, decimals uint8) uint64 {
	return uint64(math.Round(amount * math.Pow10(int(decimals))))
}

func decimalAmount256(raw *uint256.Int, decimals uint8) float64 {
	f, _ := new(big.Float).SetInt(raw.ToBig()).Float64()
	return f / math.Pow10(int(decimals))
}

// MintTable maps payment mints to their decimal counts. It is seeded with
// the curated payment mints and extended with fetched mint records; fetched
// records take precedence over the curated seed.
type MintTable struct {
	mu       sync.RWMutex
	decimals map[common.Address]uint8
}

// NewMintTable returns a table seeded from params.KnownPaymentMints.
func NewMintTable() *MintTable {
	t := &MintTable{decimals: make(map[common.Address]uint8)}
	for _, pm := range params.KnownPaymentMints {
		t.decimals[pm.Mint] = pm.Decimals
	}
	return t
}

// Register records a fetched mint's decimal count.
func (t *MintTable) Register(mint common.Address, decimals uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decimals[mint] = decimals
}

// RegisterRecord records a decoded mint record.
func (t *MintTable) RegisterRecord(rec *types.MintRecord) {
	if rec == nil {
		return
	}
	t.Register(rec.Address, rec.Decimals)
}

// Decimals returns the decimal count for mint, if known.
func (t *MintTable) Decimals(mint common.Address) (uint8, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.decimals[mint]
	return d, ok
}

// RawListingPrice returns the up-front payment amount in raw units, with the
// payment mint. ok is false when no payment approval gates the claim.
func RawListingPrice(td *types.TokenData) (uint64, common.Address, bool) {
	if td.ClaimApprover == nil {
		return 0, common.Address{}, false
	}
	return td.ClaimApprover.PaymentAmount, td.ClaimApprover.PaymentMint, true
}

// ListingPrice returns the up-front payment converted to decimal units of
// its payment mint. It returns 0 when there is no approval or the mint's
// decimals are unknown.
func ListingPrice(td *types.TokenData, mints *MintTable) float64 {
	raw, mint, ok := RawListingPrice(td)
	if !ok {
		return 0
	}
	dec, ok := mints.Decimals(mint)
	if !ok {
		return 0
	}
	return DecimalAmount(raw, dec)
}

// EffectiveDuration returns the rental's remaining or configured duration in
// seconds at the given time. bounded is false for a rate rental without a
// maximum expiration, whose duration is unlimited.
//
// Priority: claimed fixed-expiration, rate (zero base duration, capped by
// max expiration when set), fixed duration, expiration, then zero.
func EffectiveDuration(td *types.TokenData, now int64) (duration int64, bounded bool) {
	ti := td.TimeInvalidator
	if ti == nil {
		return 0, true
	}
	if td.Claimed() && ti.Expiration != nil {
		return *ti.Expiration - now, true
	}
	if ti.DurationSeconds != nil && *ti.DurationSeconds == 0 {
		if ti.MaxExpiration != nil {
			return *ti.MaxExpiration - now, true
		}
		return 0, false
	}
	if ti.DurationSeconds != nil {
		return *ti.DurationSeconds, true
	}
	if ti.Expiration != nil {
		return *ti.Expiration - now, true
	}
	return 0, true
}

// RawRate returns the rental's price per unitSeconds in raw units of the
// returned mint. ok is false when no rate can be derived (manual rentals,
// unbounded durations, missing payment data). A zero duration never divides;
// it short-circuits to no rate.
func RawRate(td *types.TokenData, now, unitSeconds int64) (*uint256.Int, common.Address, bool) {
	if unitSeconds <= 0 {
		return nil, common.Address{}, false
	}
	ti := td.TimeInvalidator

	// Rate rental: price per extension window.
	if ti != nil && ti.DurationSeconds != nil && *ti.DurationSeconds == 0 &&
		ti.ExtensionPaymentAmount != nil && ti.ExtensionDurationSeconds != nil {
		extDur := *ti.ExtensionDurationSeconds
		if extDur <= 0 || ti.ExtensionPaymentMint == nil {
			return nil, common.Address{}, false
		}
		r := uint256.NewInt(*ti.ExtensionPaymentAmount)
		r.Mul(r, uint256.NewInt(uint64(unitSeconds)))
		r.Div(r, uint256.NewInt(uint64(extDur)))
		return r, *ti.ExtensionPaymentMint, true
	}

	// Price rental: up-front payment over the effective duration, capped by
	// the maximum expiration when present.
	raw, mint, ok := RawListingPrice(td)
	if !ok {
		return nil, common.Address{}, false
	}
	dur, bounded := EffectiveDuration(td, now)
	if !bounded {
		return nil, common.Address{}, false
	}
	if ti != nil && ti.MaxExpiration != nil {
		if capped := *ti.MaxExpiration - now; capped < dur {
			dur = capped
		}
	}
	if dur <= 0 {
		return nil, common.Address{}, false
	}
	r := uint256.NewInt(raw)
	r.Mul(r, uint256.NewInt(uint64(unitSeconds)))
	r.Div(r, uint256.NewInt(uint64(dur)))
	return r, mint, true
}

// NormalizedRate returns the rental's price per unitSeconds converted to
// decimal units of its payment mint, or 0 when no rate can be derived.
func NormalizedRate(td *types.TokenData, now, unitSeconds int64, mints *MintTable) float64 {
	raw, mint, ok := RawRate(td, now, unitSeconds)
	if !ok {
		return 0
	}
	dec, ok := mints.Decimals(mint)
	if !ok {
		return 0
	}
	return decimalAmount256(raw, dec)
}
