// Package market classifies resolved rentals, evaluates their UI-facing
// eligibility and orders/filters collections of them. Everything in here is
// a pure function of TokenData plus an explicit clock; partial data sorts as
// least-favorable instead of panicking.
package market

import (
	"sort"

	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/economics"
	"github.com/solana-nft-programs/rental-resolver/params"
)

// RentalType tags how a rental terminates. Exactly one tag applies to every
// TokenData.
type RentalType string

const (
	// TypeManual rentals carry no invalidator and end only on explicit
	// revocation.
	TypeManual RentalType = "manual"
	// TypeRate rentals accrue cost per held time via extension payments.
	TypeRate RentalType = "rate"
	// TypeDuration rentals run for a fixed term from claim.
	TypeDuration RentalType = "duration"
	// TypeExpiration rentals end at a fixed timestamp.
	TypeExpiration RentalType = "expiration"
	// TypeUnknown covers invalidator configurations matching none of the
	// above.
	TypeUnknown RentalType = "unknown"
)

// Classify returns the rental type of an aggregate. The checks are ordered
// and mutually exclusive: manual, rate, duration, expiration, then the
// default.
func Classify(td *types.TokenData) RentalType {
	ti := td.TimeInvalidator
	if ti == nil && td.UseInvalidator == nil {
		return TypeManual
	}
	if ti != nil {
		if ti.DurationSeconds != nil && *ti.DurationSeconds == 0 && ti.ExtensionDurationSeconds != nil {
			return TypeRate
		}
		if ti.DurationSeconds != nil && *ti.DurationSeconds != 0 {
			return TypeDuration
		}
		if ti.Expiration != nil || ti.MaxExpiration != nil {
			return TypeExpiration
		}
	}
	return TypeUnknown
}

// EligibleForListing reports whether the asset can be listed for rent: it is
// not already in custody, its token account is not frozen, it carries
// edition data or a mint without freeze authority, and listing is not
// disabled marketplace-wide.
func EligibleForListing(td *types.TokenData, cfg params.MarketplaceConfig) bool {
	if cfg.ListingDisabled {
		return false
	}
	if td.Custody != nil {
		return false
	}
	if td.RecipientTokenAccount != nil && td.RecipientTokenAccount.Frozen() {
		return false
	}
	if td.Edition != nil {
		return true
	}
	return td.Mint != nil && td.Mint.FreezeAuthority == nil
}

// EligibleForClaim reports whether the rental can currently be claimed.
func EligibleForClaim(td *types.TokenData) bool {
	if td.Custody == nil || td.Custody.State != types.StateIssued {
		return false
	}
	if td.Edition != nil {
		return true
	}
	return td.Mint == nil || td.Mint.FreezeAuthority == nil
}

// ShouldAutoInvalidate reports whether the rental's terminal condition has
// been reached: its time bound has passed or its usage cap is exhausted.
// Holding now fixed, the result never flips back to false without an
// external claim or revoke mutation, since it only compares immutable record
// fields against the clock.
func ShouldAutoInvalidate(td *types.TokenData, now int64) bool {
	if ti := td.TimeInvalidator; ti != nil && td.Custody != nil {
		if ti.Expiration != nil && *ti.Expiration <= now {
			return true
		}
		if ti.MaxExpiration != nil && *ti.MaxExpiration <= now {
			return true
		}
		if td.Claimed() && ti.DurationSeconds != nil && *ti.DurationSeconds > 0 &&
			td.Custody.StateChangedAt+*ti.DurationSeconds <= now {
			return true
		}
	}
	if ui := td.UseInvalidator; ui != nil && ui.MaxUsages != nil && ui.Usages >= *ui.MaxUsages {
		return true
	}
	return false
}

// SortField selects the derived value collections are ordered by.
type SortField string

const (
	SortRecentlyListed SortField = "recent"
	SortPrice          SortField = "price"
	SortRate           SortField = "rate"
	SortDuration       SortField = "duration"
)

// SortDirection orders ascending or descending.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// sortKey is a derived value with explicit presence. Absent keys order as
// the least-favorable value for the chosen direction instead of panicking or
// producing NaN-dependent orderings.
type sortKey struct {
	value float64
	raw   uint64 // integer tie-break where decimal values collide
	ok    bool
}

func key(td *types.TokenData, field SortField, now, unit int64, mints *economics.MintTable) sortKey {
	switch field {
	case SortRecentlyListed:
		if td.Custody == nil {
			return sortKey{}
		}
		return sortKey{value: float64(td.Custody.StateChangedAt), raw: uint64(td.Custody.StateChangedAt), ok: true}
	case SortPrice:
		raw, _, ok := economics.RawListingPrice(td)
		if !ok {
			return sortKey{}
		}
		return sortKey{value: economics.ListingPrice(td, mints), raw: raw, ok: true}
	case SortRate:
		r, _, ok := economics.RawRate(td, now, unit)
		if !ok {
			return sortKey{}
		}
		return sortKey{value: economics.NormalizedRate(td, now, unit, mints), raw: r.Uint64(), ok: true}
	case SortDuration:
		dur, bounded := economics.EffectiveDuration(td, now)
		if !bounded {
			return sortKey{}
		}
		return sortKey{value: float64(dur), raw: uint64(dur), ok: true}
	default:
		return sortKey{}
	}
}

// Sort stably orders tokens in place by the derived field. Entries whose key
// cannot be derived sort last regardless of direction.
func Sort(tokens []*types.TokenData, field SortField, dir SortDirection, now, unit int64, mints *economics.MintTable) {
	keys := make([]sortKey, len(tokens))
	for i, td := range tokens {
		keys[i] = key(td, field, now, unit, mints)
	}
	order := make([]int, len(tokens))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.ok != kb.ok {
			return ka.ok // absent values always sort last
		}
		if !ka.ok {
			return false
		}
		if ka.value != kb.value {
			if dir == Descending {
				return ka.value > kb.value
			}
			return ka.value < kb.value
		}
		if ka.raw != kb.raw {
			if dir == Descending {
				return ka.raw > kb.raw
			}
			return ka.raw < kb.raw
		}
		return false
	})
	sorted := make([]*types.TokenData, len(tokens))
	for i, idx := range order {
		sorted[i] = tokens[idx]
	}
	copy(tokens, sorted)
}

// MatchesAttributes reports whether the token satisfies the selected trait
// filter: for every trait type with at least one selected value, one of the
// token's attributes must match. A token without off-chain metadata matches
// only the empty filter.
func MatchesAttributes(td *types.TokenData, selected map[string][]string) bool {
	active := false
	for _, values := range selected {
		if len(values) > 0 {
			active = true
			break
		}
	}
	if !active {
		return true
	}
	if td.MetadataJSON == nil {
		return false
	}
	for trait, values := range selected {
		if len(values) == 0 {
			continue
		}
		matched := false
		for _, attr := range td.MetadataJSON.Attributes {
			if attr.TraitType != trait {
				continue
			}
			for _, v := range values {
				if attr.Value == v {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// FilterByAttributes returns the tokens matching the selected trait filter,
// preserving order.
func FilterByAttributes(tokens []*types.TokenData, selected map[string][]string) []*types.TokenData {
	out := make([]*types.TokenData, 0, len(tokens))
	for _, td := range tokens {
		if MatchesAttributes(td, selected) {
			out = append(out, td)
		}
	}
	return out
}
