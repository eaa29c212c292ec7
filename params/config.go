package params

import (
	"github.com/solana-nft-programs/rental-resolver/common"
)

// FilterType selects how marketplace candidates are narrowed.
type FilterType string

const (
	// FilterIssuer selects custody records listed by a set of issuers.
	FilterIssuer FilterType = "issuer"
	// FilterCreators selects custody records whose underlying asset carries
	// a verified creator from the given set.
	FilterCreators FilterType = "creators"
)

// Filter narrows a resolution pass to a marketplace's candidate set.
type Filter struct {
	Type  FilterType       `toml:"type"`
	Value []common.Address `toml:"value"`
}

// MarketplaceConfig is the configuration surface consumed by the resolution
// engine. It is owned by the embedding application and passed in explicitly;
// the engine holds no mutable global state.
type MarketplaceConfig struct {
	// Filter selects the candidate custody records.
	Filter Filter `toml:"filter,omitempty"`

	// ShowUnknownInvalidators includes assets whose custody record carries an
	// invalidator reference owned by no known invalidator program. Such
	// assets are excluded by default because their termination rules cannot
	// be interpreted.
	ShowUnknownInvalidators bool `toml:"show-unknown-invalidators,omitempty"`

	// DisallowedMints are excluded from every result set.
	DisallowedMints []common.Address `toml:"disallowed-mints,omitempty"`

	// MarketplaceRate is the display unit, in seconds, that normalized rates
	// are quoted in (e.g. 86400 for per-day pricing).
	MarketplaceRate int64 `toml:"marketplace-rate,omitempty"`

	// IndexDisabled forces the direct program-scan path even when a
	// secondary index is configured.
	IndexDisabled bool `toml:"index-disabled,omitempty"`

	// ListingDisabled turns off listing eligibility marketplace-wide.
	ListingDisabled bool `toml:"listing-disabled,omitempty"`
}

// DefaultConfig is the default marketplace configuration.
var DefaultConfig = MarketplaceConfig{
	ShowUnknownInvalidators: false,
	MarketplaceRate:         86400, // per day
}
