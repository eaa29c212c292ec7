package resolver

import (
	"context"
	"testing"

	log "github.com/inconshreveable/log15"
	"github.com/stretchr/testify/require"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/params"
)

// installInvalidators creates a custody record at custodyAddr with a time
// and a use invalidator at their canonical derived addresses, returning the
// two invalidator addresses.
func installInvalidators(t *testing.T, chain *fakeChain, custodyAddr common.Address) (common.Address, common.Address) {
	t.Helper()
	timeAddr, err := TimeInvalidatorAddress(custodyAddr)
	require.NoError(t, err)
	useAddr, err := UseInvalidatorAddress(custodyAddr)
	require.NoError(t, err)

	dur := int64(86400)
	chain.putRecord(timeAddr, params.TimeInvalidatorProgramID, &types.TimeInvalidatorRecord{
		Custody:         custodyAddr,
		DurationSeconds: &dur,
	})
	maxUses := uint64(10)
	chain.putRecord(useAddr, params.UseInvalidatorProgramID, &types.UseInvalidatorRecord{
		Custody:   custodyAddr,
		Usages:    1,
		MaxUsages: &maxUses,
	})
	return timeAddr, useAddr
}

func TestClassifyAssignsRolesByOwnerRegardlessOfOrder(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := addrOf(0xc1)
	issuer := addrOf(0x1a)
	timeAddr, useAddr := installInvalidators(t, chain, custodyAddr)

	for _, refs := range [][]common.Address{
		{timeAddr, useAddr},
		{useAddr, timeAddr},
	} {
		accounts, err := FetchAccounts(context.Background(), chain, refs)
		require.NoError(t, err)

		cls, err := ClassifyInvalidators(custodyAddr, issuer, refs, accounts, log.New("test", "classifier"))
		require.NoError(t, err)
		require.NotNil(t, cls.TimeInvalidator)
		require.NotNil(t, cls.UseInvalidator)
		require.Equal(t, timeAddr, cls.TimeInvalidator.Address)
		require.Equal(t, useAddr, cls.UseInvalidator.Address)
		require.Empty(t, cls.Unknown)
	}
}

func TestClassifyFlagsUnrecognizedReference(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := addrOf(0xc2)
	issuer := addrOf(0x1a)
	timeAddr, _ := installInvalidators(t, chain, custodyAddr)

	// An account owned by an unrelated program.
	rogue := addrOf(0x66)
	chain.put(rogue, addrOf(0x99), []byte{0x01})

	refs := []common.Address{timeAddr, rogue}
	accounts, err := FetchAccounts(context.Background(), chain, refs)
	require.NoError(t, err)

	cls, err := ClassifyInvalidators(custodyAddr, issuer, refs, accounts, log.New("test", "classifier"))
	require.NoError(t, err)
	require.NotNil(t, cls.TimeInvalidator)
	require.Equal(t, []common.Address{rogue}, cls.Unknown)
}

func TestClassifyToleratesBenignReferences(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := addrOf(0xc3)
	issuer := addrOf(0x1a)
	timeAddr, err := TimeInvalidatorAddress(custodyAddr)
	require.NoError(t, err)
	useAddr, err := UseInvalidatorAddress(custodyAddr)
	require.NoError(t, err)

	// References to the canonical derived addresses (with no account behind
	// them) and to the issuer are not unknown invalidators.
	refs := []common.Address{timeAddr, useAddr, issuer, {}}
	accounts, err := FetchAccounts(context.Background(), chain, refs)
	require.NoError(t, err)

	cls, err := ClassifyInvalidators(custodyAddr, issuer, refs, accounts, log.New("test", "classifier"))
	require.NoError(t, err)
	require.Nil(t, cls.TimeInvalidator)
	require.Nil(t, cls.UseInvalidator)
	require.Empty(t, cls.Unknown)
}

func TestClassifyDuplicateRoleFirstWins(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := addrOf(0xc4)
	issuer := addrOf(0x1a)
	timeAddr, _ := installInvalidators(t, chain, custodyAddr)

	// A second, non-canonical time invalidator for the same custody record.
	second := addrOf(0x67)
	dur := int64(3600)
	chain.putRecord(second, params.TimeInvalidatorProgramID, &types.TimeInvalidatorRecord{
		Custody:         custodyAddr,
		DurationSeconds: &dur,
	})

	refs := []common.Address{timeAddr, second}
	accounts, err := FetchAccounts(context.Background(), chain, refs)
	require.NoError(t, err)

	cls, err := ClassifyInvalidators(custodyAddr, issuer, refs, accounts, log.New("test", "classifier"))
	require.NoError(t, err)
	require.Equal(t, timeAddr, cls.TimeInvalidator.Address, "first reference by input order must win")
}

func TestClassifyAcceptsNonCanonicalInvalidator(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := addrOf(0xc7)
	issuer := addrOf(0x1a)

	// Role identity comes from the owning program plus the back-reference; a
	// valid record at a non-canonical address still fills the role.
	offCanonical := addrOf(0x69)
	dur := int64(3600)
	chain.putRecord(offCanonical, params.TimeInvalidatorProgramID, &types.TimeInvalidatorRecord{
		Custody:         custodyAddr,
		DurationSeconds: &dur,
	})

	refs := []common.Address{offCanonical}
	accounts, err := FetchAccounts(context.Background(), chain, refs)
	require.NoError(t, err)

	cls, err := ClassifyInvalidators(custodyAddr, issuer, refs, accounts, log.New("test", "classifier"))
	require.NoError(t, err)
	require.NotNil(t, cls.TimeInvalidator)
	require.Equal(t, offCanonical, cls.TimeInvalidator.Address)
	require.Empty(t, cls.Unknown)
}

func TestClassifyRejectsForeignBackReference(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := addrOf(0xc5)
	otherCustody := addrOf(0xc6)
	issuer := addrOf(0x1a)

	// A time invalidator under the right program but pointing at a different
	// custody record is not usable here.
	foreign := addrOf(0x68)
	dur := int64(3600)
	chain.putRecord(foreign, params.TimeInvalidatorProgramID, &types.TimeInvalidatorRecord{
		Custody:         otherCustody,
		DurationSeconds: &dur,
	})

	refs := []common.Address{foreign}
	accounts, err := FetchAccounts(context.Background(), chain, refs)
	require.NoError(t, err)

	cls, err := ClassifyInvalidators(custodyAddr, issuer, refs, accounts, log.New("test", "classifier"))
	require.NoError(t, err)
	require.Nil(t, cls.TimeInvalidator)
	require.Equal(t, []common.Address{foreign}, cls.Unknown)
}
