package types

import (
	"fmt"

	"github.com/solana-nft-programs/rental-resolver/common"
)

// MintRecord is the token program's mint account for the underlying asset or
// a payment currency.
type MintRecord struct {
	// Address is populated at decode time, not part of the stored layout.
	Address common.Address

	MintAuthority   *common.Address
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *common.Address
}

// MarshalBinary encodes the record into its account-data layout.
func (m *MintRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.optAddress(m.MintAuthority)
	w.u64(m.Supply)
	w.u8(m.Decimals)
	w.boolean(m.IsInitialized)
	w.optAddress(m.FreezeAuthority)
	return w.buf, nil
}

func decodeMintRecord(data []byte) (*MintRecord, error) {
	r := newReader(data)
	m := &MintRecord{}
	m.MintAuthority = r.optAddress()
	m.Supply = r.u64()
	m.Decimals = r.u8()
	m.IsInitialized = r.boolean()
	m.FreezeAuthority = r.optAddress()
	if err := r.finish(); err != nil {
		return nil, err
	}
	if !m.IsInitialized {
		return nil, fmt.Errorf("uninitialized mint")
	}
	return m, nil
}

// TokenAccountState is the state of a token balance account.
type TokenAccountState uint8

const (
	TokenAccountInitialized TokenAccountState = iota + 1
	TokenAccountFrozen
)

// TokenAccountRecord is a holder's balance account for a mint. It drives the
// ownership-based eligibility predicates.
type TokenAccountRecord struct {
	// Address is populated at decode time, not part of the stored layout.
	Address common.Address

	Mint     common.Address
	Owner    common.Address
	Amount   uint64
	Delegate *common.Address
	State    TokenAccountState
}

// Frozen reports whether the account is frozen by the freeze authority.
func (t *TokenAccountRecord) Frozen() bool {
	return t.State == TokenAccountFrozen
}

// MarshalBinary encodes the record into its account-data layout.
func (t *TokenAccountRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.address(t.Mint)
	w.address(t.Owner)
	w.u64(t.Amount)
	w.optAddress(t.Delegate)
	w.u8(uint8(t.State))
	return w.buf, nil
}

func decodeTokenAccountRecord(data []byte) (*TokenAccountRecord, error) {
	r := newReader(data)
	t := &TokenAccountRecord{
		Mint:   r.address(),
		Owner:  r.address(),
		Amount: r.u64(),
	}
	t.Delegate = r.optAddress()
	t.State = TokenAccountState(r.u8())
	if err := r.finish(); err != nil {
		return nil, err
	}
	if t.State < TokenAccountInitialized || t.State > TokenAccountFrozen {
		return nil, fmt.Errorf("invalid token account state %d", t.State)
	}
	return t, nil
}
