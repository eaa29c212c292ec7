// Package params holds the fixed protocol identities and configuration
// surface of the rental resolver.
package params

import (
	"github.com/solana-nft-programs/rental-resolver/common"
)

// Rental protocol programs — fixed, well-known program identities. The role
// of an invalidator account is never encoded in its data; it is inferred
// from which of these programs owns the account.
var (
	// CustodyProgramID owns custody ("token manager") records.
	CustodyProgramID = common.MustBase58ToAddress("mgr99QFMYByTqGPWmNqunV7vBLmWWXdSrHUfV8Jf3JM")

	// TimeInvalidatorProgramID owns time-based invalidator records.
	TimeInvalidatorProgramID = common.MustBase58ToAddress("tmeEDp1RgoDtZFtx6qod3HkbQmv9LMe36uqKVvsLTDE")

	// UseInvalidatorProgramID owns usage-based invalidator records.
	UseInvalidatorProgramID = common.MustBase58ToAddress("useZ65tbyvWpdYCLDJaW4WWHeuHVFZ9o9GUsHGYTLZB")

	// ClaimApproverProgramID owns payment-approval records gating claims.
	ClaimApproverProgramID = common.MustBase58ToAddress("pcaBwhJ1YHp7UDA7HASpQsRUmUNwzgYaLQto2kSj1fR")

	// TokenProgramID owns mint and token-balance accounts.
	TokenProgramID = common.MustBase58ToAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// MetadataProgramID owns display-metadata and edition accounts.
	MetadataProgramID = common.MustBase58ToAddress("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

// Seeds for canonical derived record addresses. Each custody record has at
// most one canonical invalidator per role, derived from the custody record's
// own address under the role's program.
var (
	TimeInvalidatorSeed = []byte("time-invalidator")
	UseInvalidatorSeed  = []byte("use-invalidator")
	ClaimApproverSeed   = []byte("paid-claim-approver")
	MetadataSeed        = []byte("metadata")
	EditionSeed         = []byte("edition")
)
