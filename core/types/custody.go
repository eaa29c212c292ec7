// Package types defines the on-chain record schemas of the rental protocol
// and the TokenData aggregate the resolver produces from them.
package types

import (
	"fmt"

	"github.com/solana-nft-programs/rental-resolver/common"
)

const custodyRecordVersion = 1

// CustodyState is the lifecycle state of a custody record. Transitions are
// monotonic Initialized → Issued → Claimed → Invalidated, except that the
// Reissue policy cycles a Claimed record back to Issued.
type CustodyState uint8

const (
	StateInitialized CustodyState = iota
	StateIssued
	StateClaimed
	StateInvalidated
)

func (s CustodyState) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateIssued:
		return "issued"
	case StateClaimed:
		return "claimed"
	case StateInvalidated:
		return "invalidated"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// CustodyKind determines how the asset is held in escrow.
type CustodyKind uint8

const (
	KindManaged CustodyKind = iota + 1
	KindCustodyEdition
)

// InvalidationPolicy determines what happens to the asset when the rental
// terminates.
type InvalidationPolicy uint8

const (
	PolicyReturn InvalidationPolicy = iota + 1
	PolicyRelease
	PolicyReissue
	PolicyInvalidate
)

// CustodyRecord represents one asset held in escrow for rental. It is the
// root of a TokenData aggregate; every other record is reached through it.
type CustodyRecord struct {
	// Address is the record's account address. It is populated at decode
	// time and is not part of the stored layout.
	Address common.Address

	State            CustodyState
	Kind             CustodyKind
	InvalidationType InvalidationPolicy
	Mint             common.Address
	Issuer           common.Address
	Amount           uint64
	StateChangedAt   int64

	// ClaimApprover references the payment-approval record gating the claim,
	// when an up-front payment is required.
	ClaimApprover *common.Address

	// RecipientTokenAccount is the renter's balance account once claimed.
	RecipientTokenAccount *common.Address

	// Invalidators are the attached invalidator account references. Their
	// roles are not stored; they are classified by owning program.
	Invalidators []common.Address
}

// MarshalBinary encodes the record into its account-data layout.
func (c *CustodyRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.u8(custodyRecordVersion)
	w.u8(uint8(c.State))
	w.u8(uint8(c.Kind))
	w.u8(uint8(c.InvalidationType))
	w.address(c.Mint)
	w.address(c.Issuer)
	w.u64(c.Amount)
	w.i64(c.StateChangedAt)
	w.optAddress(c.ClaimApprover)
	w.optAddress(c.RecipientTokenAccount)
	w.addressVec(c.Invalidators)
	return w.buf, nil
}

func decodeCustodyRecord(data []byte) (*CustodyRecord, error) {
	r := newReader(data)
	if v := r.u8(); v != custodyRecordVersion {
		return nil, fmt.Errorf("%w: custody v%d", ErrBadRecordVersion, v)
	}
	c := &CustodyRecord{
		State:            CustodyState(r.u8()),
		Kind:             CustodyKind(r.u8()),
		InvalidationType: InvalidationPolicy(r.u8()),
		Mint:             r.address(),
		Issuer:           r.address(),
		Amount:           r.u64(),
		StateChangedAt:   r.i64(),
	}
	c.ClaimApprover = r.optAddress()
	c.RecipientTokenAccount = r.optAddress()
	c.Invalidators = r.addressVec()
	if err := r.finish(); err != nil {
		return nil, err
	}
	if c.State > StateInvalidated {
		return nil, fmt.Errorf("invalid custody state %d", c.State)
	}
	if c.Kind < KindManaged || c.Kind > KindCustodyEdition {
		return nil, fmt.Errorf("invalid custody kind %d", c.Kind)
	}
	if c.InvalidationType < PolicyReturn || c.InvalidationType > PolicyInvalidate {
		return nil, fmt.Errorf("invalid invalidation policy %d", c.InvalidationType)
	}
	return c, nil
}
