package types

import (
	"github.com/solana-nft-programs/rental-resolver/common"
)

// TokenData is the resolved, read-only view of one rental: the custody
// record composed with its classified invalidators, payment approval,
// mint/metadata and the recipient's token account. It is keyed by the
// custody record's mint.
//
// All fields except Custody are optional. Absence means the underlying
// record does not exist or failed to enrich; it never means "still loading".
type TokenData struct {
	Custody               *CustodyRecord
	TimeInvalidator       *TimeInvalidatorRecord
	UseInvalidator        *UseInvalidatorRecord
	ClaimApprover         *PaymentApprovalRecord
	Mint                  *MintRecord
	Metadata              *MetadataRecord
	Edition               *EditionRecord
	RecipientTokenAccount *TokenAccountRecord

	// MetadataJSON is the off-chain display document. It is nil when the
	// URI fetch failed; the failure is isolated to this field.
	MetadataJSON *MetadataJSON

	// UnknownInvalidators lists attached invalidator references owned by no
	// known invalidator program and matching neither a canonical derived
	// address nor the issuer. Aggregates carrying any are excluded from
	// listings unless the marketplace opts in.
	UnknownInvalidators []common.Address
}

// MintAddress returns the aggregate's key: the custody record's mint, or the
// mint record's address when the asset is not in custody.
func (t *TokenData) MintAddress() common.Address {
	if t.Custody != nil {
		return t.Custody.Mint
	}
	if t.Mint != nil {
		return t.Mint.Address
	}
	return common.Address{}
}

// HasUnknownInvalidators reports whether any attached invalidator reference
// could not be interpreted.
func (t *TokenData) HasUnknownInvalidators() bool {
	return len(t.UnknownInvalidators) > 0
}

// Claimed reports whether the rental is currently claimed.
func (t *TokenData) Claimed() bool {
	return t.Custody != nil && t.Custody.State == StateClaimed
}
