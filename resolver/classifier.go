package resolver

import (
	log "github.com/inconshreveable/log15"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/params"
)

// Classification is the result of assigning a custody record's attached
// invalidator references to roles. At most one invalidator per role is
// resolved; anything that matches no role and is neither a canonical derived
// address nor the issuer ends up in Unknown.
type Classification struct {
	TimeInvalidator *types.TimeInvalidatorRecord
	UseInvalidator  *types.UseInvalidatorRecord
	Unknown         []common.Address
}

// ClassifyInvalidators assigns roles to the invalidator references of the
// custody record at custodyAddr. Role identity comes from the owning program
// of each referenced account, never from the account data. The outcome is
// independent of reference order except in the should-not-happen case of two
// references resolving to the same role, where the first reference wins and
// a warning is logged.
func ClassifyInvalidators(custodyAddr, issuer common.Address, refs []common.Address, accounts map[common.Address]*types.Account, logger log.Logger) (Classification, error) {
	canonicalTime, err := TimeInvalidatorAddress(custodyAddr)
	if err != nil {
		return Classification{}, err
	}
	canonicalUse, err := UseInvalidatorAddress(custodyAddr)
	if err != nil {
		return Classification{}, err
	}

	var c Classification
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		acc := accounts[ref]
		if acc != nil {
			switch acc.Owner {
			case params.TimeInvalidatorProgramID:
				if rec := acc.TimeInvalidator(); rec != nil && rec.Custody == custodyAddr {
					if c.TimeInvalidator != nil {
						logger.Warn("duplicate time invalidator reference", "custody", custodyAddr, "kept", c.TimeInvalidator.Address, "dropped", ref)
						continue
					}
					c.TimeInvalidator = rec
					continue
				}
			case params.UseInvalidatorProgramID:
				if rec := acc.UseInvalidator(); rec != nil && rec.Custody == custodyAddr {
					if c.UseInvalidator != nil {
						logger.Warn("duplicate use invalidator reference", "custody", custodyAddr, "kept", c.UseInvalidator.Address, "dropped", ref)
						continue
					}
					c.UseInvalidator = rec
					continue
				}
			}
		}
		// Not a usable invalidator of either role. References to the
		// canonical derived addresses (the invalidator simply does not exist
		// yet) or to the issuer are benign; anything else cannot be
		// interpreted and taints the aggregate.
		if ref != canonicalTime && ref != canonicalUse && ref != issuer {
			c.Unknown = append(c.Unknown, ref)
		}
	}
	return c, nil
}
