package params

import (
	"github.com/solana-nft-programs/rental-resolver/common"
)

// PaymentMint describes a currency accepted for rental payments.
type PaymentMint struct {
	Mint     common.Address
	Symbol   string
	Decimals uint8
}

// Well-known payment mints. These seed the decimal lookup used for price
// display before the mint account itself has been fetched; a fetched mint
// record always takes precedence.
var (
	WrappedSOL = PaymentMint{
		Mint:     common.MustBase58ToAddress("So11111111111111111111111111111111111111112"),
		Symbol:   "SOL",
		Decimals: 9,
	}
	USDC = PaymentMint{
		Mint:     common.MustBase58ToAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
		Symbol:   "USDC",
		Decimals: 6,
	}
)

// KnownPaymentMints lists the curated payment mints in display order.
var KnownPaymentMints = []PaymentMint{WrappedSOL, USDC}

// LookupPaymentMint returns the curated entry for mint, if any.
func LookupPaymentMint(mint common.Address) (PaymentMint, bool) {
	for _, pm := range KnownPaymentMints {
		if pm.Mint == mint {
			return pm, true
		}
	}
	return PaymentMint{}, false
}
