package types

import (
	"fmt"

	"github.com/solana-nft-programs/rental-resolver/common"
)

const paymentApprovalVersion = 1

// PaymentApprovalRecord is the up-front payment requirement gating the
// initial claim of a rental ("claim approver").
type PaymentApprovalRecord struct {
	// Address is populated at decode time, not part of the stored layout.
	Address common.Address

	// Custody is the back-reference to the owning custody record.
	Custody common.Address

	PaymentAmount uint64
	PaymentMint   common.Address
	Collector     *common.Address
}

// MarshalBinary encodes the record into its account-data layout.
func (p *PaymentApprovalRecord) MarshalBinary() ([]byte, error) {
	w := new(writer)
	w.u8(paymentApprovalVersion)
	w.address(p.Custody)
	w.u64(p.PaymentAmount)
	w.address(p.PaymentMint)
	w.optAddress(p.Collector)
	return w.buf, nil
}

func decodePaymentApprovalRecord(data []byte) (*PaymentApprovalRecord, error) {
	r := newReader(data)
	if v := r.u8(); v != paymentApprovalVersion {
		return nil, fmt.Errorf("%w: payment approval v%d", ErrBadRecordVersion, v)
	}
	p := &PaymentApprovalRecord{
		Custody:       r.address(),
		PaymentAmount: r.u64(),
		PaymentMint:   r.address(),
	}
	p.Collector = r.optAddress()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return p, nil
}
