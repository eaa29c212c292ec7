package types

import (
	"fmt"

	"github.com/solana-nft-programs/rental-resolver/common"
)

// Metadata-program account discriminators. Metadata and edition accounts
// share an owning program and are told apart by their leading key byte.
const (
	metadataKey      = 4
	masterEditionKey = 6
)

// Creator is a verified-or-not creator share on a metadata record.
type Creator struct {
	Address  common.Address
	Verified bool
	Share    uint8
}

// MetadataRecord is the on-chain display metadata of the underlying mint.
// Its URI points at off-chain JSON which may fail to load without
// invalidating the rest of the aggregate.
type MetadataRecord struct {
	// Address is populated at decode time, not part of the stored layout.
	Address common.Address

	Mint     common.Address
	Name     string
	Symbol   string
	URI      string
	Creators []Creator
}

// VerifiedCreators returns the addresses of creators with a verified flag.
func (m *MetadataRecord) VerifiedCreators() []common.Address {
	var out []common.Address
	for _, c := range m.Creators {
		if c.Verified {
			out = append(out, c.Address)
		}
	}
	return out
}

// MarshalBinary encodes the record into its account-data layout.
func (m *MetadataRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.u8(metadataKey)
	w.address(m.Mint)
	w.str(m.Name)
	w.str(m.Symbol)
	w.str(m.URI)
	w.u32(uint32(len(m.Creators)))
	for _, c := range m.Creators {
		w.address(c.Address)
		w.boolean(c.Verified)
		w.u8(c.Share)
	}
	return w.buf, nil
}

func decodeMetadataRecord(data []byte) (*MetadataRecord, error) {
	r := newReader(data)
	if k := r.u8(); k != metadataKey {
		return nil, fmt.Errorf("not a metadata account (key %d)", k)
	}
	m := &MetadataRecord{
		Mint:   r.address(),
		Name:   r.str(),
		Symbol: r.str(),
		URI:    r.str(),
	}
	n := r.u32()
	if n > maxVecLength {
		return nil, fmt.Errorf("%w: creator count %d", ErrTruncatedRecord, n)
	}
	for i := uint32(0); i < n; i++ {
		m.Creators = append(m.Creators, Creator{
			Address:  r.address(),
			Verified: r.boolean(),
			Share:    r.u8(),
		})
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// EditionRecord marks the mint as a master edition, which listing
// eligibility requires unless the mint carries no freeze authority.
type EditionRecord struct {
	// Address is populated at decode time, not part of the stored layout.
	Address common.Address

	MaxSupply *uint64
}

// MarshalBinary encodes the record into its account-data layout.
func (e *EditionRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.u8(masterEditionKey)
	w.optU64(e.MaxSupply)
	return w.buf, nil
}

func decodeEditionRecord(data []byte) (*EditionRecord, error) {
	r := newReader(data)
	if k := r.u8(); k != masterEditionKey {
		return nil, fmt.Errorf("not a master edition account (key %d)", k)
	}
	e := &EditionRecord{MaxSupply: r.optU64()}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return e, nil
}

// MetadataJSON is the off-chain display document referenced by a metadata
// record's URI. All fields are optional in the wild.
type MetadataJSON struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// Attribute is one trait entry of the off-chain metadata document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}
