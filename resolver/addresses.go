// Package resolver implements the rental state resolution engine: batched
// account fetching, invalidator classification by owning program, and the
// aggregation of fragmented on-chain records into TokenData views. The
// indexed and direct candidate paths share one aggregation routine and are
// equivalent by construction.
package resolver

import (
	"fmt"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/crypto"
	"github.com/solana-nft-programs/rental-resolver/params"
)

// TimeInvalidatorAddress returns the canonical time invalidator address for
// a custody record.
func TimeInvalidatorAddress(custody common.Address) (common.Address, error) {
	addr, _, err := crypto.FindProgramAddress(
		[][]byte{params.TimeInvalidatorSeed, custody.Bytes()},
		params.TimeInvalidatorProgramID,
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("derive time invalidator for %s: %w", custody, err)
	}
	return addr, nil
}

// UseInvalidatorAddress returns the canonical use invalidator address for a
// custody record.
func UseInvalidatorAddress(custody common.Address) (common.Address, error) {
	addr, _, err := crypto.FindProgramAddress(
		[][]byte{params.UseInvalidatorSeed, custody.Bytes()},
		params.UseInvalidatorProgramID,
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("derive use invalidator for %s: %w", custody, err)
	}
	return addr, nil
}

// ClaimApproverAddress returns the canonical payment-approval address for a
// custody record, used when the custody record carries no explicit
// reference.
func ClaimApproverAddress(custody common.Address) (common.Address, error) {
	addr, _, err := crypto.FindProgramAddress(
		[][]byte{params.ClaimApproverSeed, custody.Bytes()},
		params.ClaimApproverProgramID,
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("derive claim approver for %s: %w", custody, err)
	}
	return addr, nil
}

// MetadataAddress returns the canonical metadata account address for a mint.
func MetadataAddress(mint common.Address) (common.Address, error) {
	addr, _, err := crypto.FindProgramAddress(
		[][]byte{params.MetadataSeed, params.MetadataProgramID.Bytes(), mint.Bytes()},
		params.MetadataProgramID,
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("derive metadata for %s: %w", mint, err)
	}
	return addr, nil
}

// EditionAddress returns the canonical edition account address for a mint.
func EditionAddress(mint common.Address) (common.Address, error) {
	addr, _, err := crypto.FindProgramAddress(
		[][]byte{params.MetadataSeed, params.MetadataProgramID.Bytes(), mint.Bytes(), params.EditionSeed},
		params.MetadataProgramID,
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("derive edition for %s: %w", mint, err)
	}
	return addr, nil
}
