package types

import (
	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/params"
)

// RecordKind tags a decoded account with the schema it matched. KindUnknown
// is an explicit variant, not an error: an account whose bytes match no
// known schema (or whose owner is no known program) still participates in
// classification by owner.
type RecordKind uint8

const (
	KindUnknown RecordKind = iota
	KindCustody
	KindTimeInvalidator
	KindUseInvalidator
	KindPaymentApproval
	KindMint
	KindTokenAccount
	KindMetadata
	KindEdition
)

func (k RecordKind) String() string {
	switch k {
	case KindCustody:
		return "custody"
	case KindTimeInvalidator:
		return "timeInvalidator"
	case KindUseInvalidator:
		return "useInvalidator"
	case KindPaymentApproval:
		return "paymentApproval"
	case KindMint:
		return "mint"
	case KindTokenAccount:
		return "tokenAccount"
	case KindMetadata:
		return "metadata"
	case KindEdition:
		return "edition"
	default:
		return "unknown"
	}
}

// Account is a fetched account together with its decoded record, if any.
type Account struct {
	Address common.Address
	Owner   common.Address
	Data    []byte
	Kind    RecordKind

	// Record holds the decoded *XxxRecord matching Kind; nil for KindUnknown.
	Record interface{}
}

// schema pairs a record kind with its owning program and decode function.
// DecodeAccount tries schemas in this fixed priority order; a schema is
// eligible only when the account's owner matches its program, so two
// programs' layouts can never shadow each other.
type schema struct {
	kind   RecordKind
	owner  *common.Address
	decode func(addr common.Address, data []byte) (interface{}, error)
}

var schemas = []schema{
	{KindCustody, &params.CustodyProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodeCustodyRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
	{KindTimeInvalidator, &params.TimeInvalidatorProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodeTimeInvalidatorRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
	{KindUseInvalidator, &params.UseInvalidatorProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodeUseInvalidatorRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
	{KindPaymentApproval, &params.ClaimApproverProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodePaymentApprovalRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
	{KindTokenAccount, &params.TokenProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodeTokenAccountRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
	{KindMint, &params.TokenProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodeMintRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
	{KindMetadata, &params.MetadataProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodeMetadataRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
	{KindEdition, &params.MetadataProgramID, func(a common.Address, d []byte) (interface{}, error) {
		r, err := decodeEditionRecord(d)
		if err == nil {
			r.Address = a
		}
		return r, err
	}},
}

// DecodeAccount decodes raw account data against every known schema in
// priority order and tags the result. A malformed or unrecognized account
// yields KindUnknown, never an error; batch fetches must not fail on a
// single bad account.
func DecodeAccount(addr, owner common.Address, data []byte) *Account {
	acc := &Account{Address: addr, Owner: owner, Data: data, Kind: KindUnknown}
	for _, s := range schemas {
		if *s.owner != owner {
			continue
		}
		rec, err := s.decode(addr, data)
		if err != nil {
			continue
		}
		acc.Kind = s.kind
		acc.Record = rec
		return acc
	}
	return acc
}

// Custody returns the decoded custody record, or nil.
func (a *Account) Custody() *CustodyRecord {
	if a == nil || a.Kind != KindCustody {
		return nil
	}
	return a.Record.(*CustodyRecord)
}

// TimeInvalidator returns the decoded time invalidator record, or nil.
func (a *Account) TimeInvalidator() *TimeInvalidatorRecord {
	if a == nil || a.Kind != KindTimeInvalidator {
		return nil
	}
	return a.Record.(*TimeInvalidatorRecord)
}

// UseInvalidator returns the decoded use invalidator record, or nil.
func (a *Account) UseInvalidator() *UseInvalidatorRecord {
	if a == nil || a.Kind != KindUseInvalidator {
		return nil
	}
	return a.Record.(*UseInvalidatorRecord)
}

// PaymentApproval returns the decoded payment approval record, or nil.
func (a *Account) PaymentApproval() *PaymentApprovalRecord {
	if a == nil || a.Kind != KindPaymentApproval {
		return nil
	}
	return a.Record.(*PaymentApprovalRecord)
}

// Mint returns the decoded mint record, or nil.
func (a *Account) Mint() *MintRecord {
	if a == nil || a.Kind != KindMint {
		return nil
	}
	return a.Record.(*MintRecord)
}

// TokenAccount returns the decoded token account record, or nil.
func (a *Account) TokenAccount() *TokenAccountRecord {
	if a == nil || a.Kind != KindTokenAccount {
		return nil
	}
	return a.Record.(*TokenAccountRecord)
}

// Metadata returns the decoded metadata record, or nil.
func (a *Account) Metadata() *MetadataRecord {
	if a == nil || a.Kind != KindMetadata {
		return nil
	}
	return a.Record.(*MetadataRecord)
}

// Edition returns the decoded edition record, or nil.
func (a *Account) Edition() *EditionRecord {
	if a == nil || a.Kind != KindEdition {
		return nil
	}
	return a.Record.(*EditionRecord)
}
