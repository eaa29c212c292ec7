package types

import (
	"fmt"

	"github.com/solana-nft-programs/rental-resolver/common"
)

const invalidatorRecordVersion = 1

// TimeInvalidatorRecord terminates a rental on a time condition. Exactly one
// of the mutually exclusive configurations is normally set: a fixed duration,
// a fixed expiration timestamp, or a rate configuration (zero duration plus
// an extension price/duration pair). MaxExpiration caps all of them.
type TimeInvalidatorRecord struct {
	// Address is populated at decode time, not part of the stored layout.
	Address common.Address

	// Custody is the back-reference to the owning custody record.
	Custody common.Address

	Expiration               *int64
	DurationSeconds          *int64
	ExtensionPaymentAmount   *uint64
	ExtensionDurationSeconds *int64
	ExtensionPaymentMint     *common.Address
	MaxExpiration            *int64
}

// MarshalBinary encodes the record into its account-data layout.
func (t *TimeInvalidatorRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.u8(invalidatorRecordVersion)
	w.address(t.Custody)
	w.optI64(t.Expiration)
	w.optI64(t.DurationSeconds)
	w.optU64(t.ExtensionPaymentAmount)
	w.optI64(t.ExtensionDurationSeconds)
	w.optAddress(t.ExtensionPaymentMint)
	w.optI64(t.MaxExpiration)
	return w.buf, nil
}

func decodeTimeInvalidatorRecord(data []byte) (*TimeInvalidatorRecord, error) {
	r := newReader(data)
	if v := r.u8(); v != invalidatorRecordVersion {
		return nil, fmt.Errorf("%w: time invalidator v%d", ErrBadRecordVersion, v)
	}
	t := &TimeInvalidatorRecord{Custody: r.address()}
	t.Expiration = r.optI64()
	t.DurationSeconds = r.optI64()
	t.ExtensionPaymentAmount = r.optU64()
	t.ExtensionDurationSeconds = r.optI64()
	t.ExtensionPaymentMint = r.optAddress()
	t.MaxExpiration = r.optI64()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// UseInvalidatorRecord terminates a rental once a usage cap is reached.
type UseInvalidatorRecord struct {
	// Address is populated at decode time, not part of the stored layout.
	Address common.Address

	// Custody is the back-reference to the owning custody record.
	Custody common.Address

	Usages       uint64
	MaxUsages    *uint64
	UseAuthority *common.Address
}

// MarshalBinary encodes the record into its account-data layout.
func (u *UseInvalidatorRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.u8(invalidatorRecordVersion)
	w.address(u.Custody)
	w.u64(u.Usages)
	w.optU64(u.MaxUsages)
	w.optAddress(u.UseAuthority)
	return w.buf, nil
}

func decodeUseInvalidatorRecord(data []byte) (*UseInvalidatorRecord, error) {
	r := newReader(data)
	if v := r.u8(); v != invalidatorRecordVersion {
		return nil, fmt.Errorf("%w: use invalidator v%d", ErrBadRecordVersion, v)
	}
	u := &UseInvalidatorRecord{Custody: r.address(), Usages: r.u64()}
	u.MaxUsages = r.optU64()
	u.UseAuthority = r.optAddress()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return u, nil
}
