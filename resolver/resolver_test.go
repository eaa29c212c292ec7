package resolver

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/economics"
	"github.com/solana-nft-programs/rental-resolver/params"
)

var (
	testIssuer      = addrOf(0x1a)
	testPaymentMint = addrOf(0x60)
)

// fakeIndex emulates the secondary index over the same snapshot: candidate
// addresses with the invalidator references embedded in the index payload.
type fakeIndex struct {
	chain *fakeChain
}

func (f *fakeIndex) Candidates(ctx context.Context, filter params.Filter, state types.CustodyState) ([]Candidate, error) {
	raws, err := f.chain.ProgramAccounts(ctx, params.CustodyProgramID)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for addr, raw := range raws {
		custody := types.DecodeAccount(addr, raw.Owner, raw.Data).Custody()
		if custody == nil || custody.State != state {
			continue
		}
		if filter.Type == params.FilterIssuer && !common.AddressSliceContains(filter.Value, custody.Issuer) {
			continue
		}
		out = append(out, Candidate{
			Address:            addr,
			InvalidatorRefs:    custody.Invalidators,
			HasInvalidatorRefs: true,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.String() < out[j].Address.String()
	})
	return out, nil
}

// installRental creates a complete issued rental on the fake chain: mint,
// custody record, canonical time invalidator with a fixed one-day duration
// and a canonical payment approval of 1.0 units at 6 decimals.
func installRental(t *testing.T, chain *fakeChain, id byte) common.Address {
	t.Helper()
	custodyAddr := addrOf(id)
	mint := addrOf(id + 1)

	chain.putRecord(mint, params.TokenProgramID, &types.MintRecord{
		Supply:        1,
		Decimals:      0,
		IsInitialized: true,
	})

	timeAddr, err := TimeInvalidatorAddress(custodyAddr)
	require.NoError(t, err)
	dur := int64(86400)
	chain.putRecord(timeAddr, params.TimeInvalidatorProgramID, &types.TimeInvalidatorRecord{
		Custody:         custodyAddr,
		DurationSeconds: &dur,
	})

	approverAddr, err := ClaimApproverAddress(custodyAddr)
	require.NoError(t, err)
	chain.putRecord(approverAddr, params.ClaimApproverProgramID, &types.PaymentApprovalRecord{
		Custody:       custodyAddr,
		PaymentAmount: 1_000_000,
		PaymentMint:   testPaymentMint,
	})

	chain.putRecord(custodyAddr, params.CustodyProgramID, &types.CustodyRecord{
		State:            types.StateIssued,
		Kind:             types.KindManaged,
		InvalidationType: types.PolicyReturn,
		Mint:             mint,
		Issuer:           testIssuer,
		Amount:           1,
		StateChangedAt:   1_700_000_000,
		ClaimApprover:    &approverAddr,
		Invalidators:     []common.Address{timeAddr},
	})
	return custodyAddr
}

func testConfig() Config {
	return Config{
		Marketplace: params.MarketplaceConfig{
			Filter:          params.Filter{Type: params.FilterIssuer, Value: []common.Address{testIssuer}},
			MarketplaceRate: 86400,
		},
		Metadata: MetadataConfig{Disabled: true},
	}
}

func byCustody(tokens []*types.TokenData) map[common.Address]*types.TokenData {
	out := make(map[common.Address]*types.TokenData, len(tokens))
	for _, td := range tokens {
		out[td.Custody.Address] = td
	}
	return out
}

func TestPathEquivalence(t *testing.T) {
	chain := newFakeChain()
	c1 := installRental(t, chain, 0x20)
	c2 := installRental(t, chain, 0x30)

	direct := New(chain, chain, nil, testConfig())
	indexed := New(chain, nil, &fakeIndex{chain}, testConfig())

	gotDirect, err := direct.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	gotIndexed, err := indexed.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)

	require.Len(t, gotDirect, 2)
	require.Len(t, gotIndexed, 2)

	mints := economics.NewMintTable()
	mints.Register(testPaymentMint, 6)
	now := int64(1_700_000_000)

	d, x := byCustody(gotDirect), byCustody(gotIndexed)
	for _, custodyAddr := range []common.Address{c1, c2} {
		td, ti := d[custodyAddr], x[custodyAddr]
		require.NotNil(t, td, "direct path missing %s", custodyAddr)
		require.NotNil(t, ti, "indexed path missing %s", custodyAddr)

		// Identical classification outcome.
		require.NotNil(t, td.TimeInvalidator)
		require.NotNil(t, ti.TimeInvalidator)
		require.Equal(t, td.TimeInvalidator.Address, ti.TimeInvalidator.Address)
		require.Nil(t, td.UseInvalidator)
		require.Nil(t, ti.UseInvalidator)
		require.Empty(t, td.UnknownInvalidators)
		require.Empty(t, ti.UnknownInvalidators)

		// Identical derived economics.
		require.Equal(t, economics.ListingPrice(td, mints), economics.ListingPrice(ti, mints))
		require.Equal(t, 1.0, economics.ListingPrice(td, mints))
		dd, db := economics.EffectiveDuration(td, now)
		xd, xb := economics.EffectiveDuration(ti, now)
		require.Equal(t, dd, xd)
		require.Equal(t, db, xb)
		require.Equal(t, int64(86400), dd)

		// Identical aggregate shape.
		require.Equal(t, td.Custody.Mint, ti.Custody.Mint)
		require.NotNil(t, td.Mint)
		require.NotNil(t, ti.Mint)
		require.NotNil(t, td.ClaimApprover)
		require.NotNil(t, ti.ClaimApprover)
		require.Equal(t, td.ClaimApprover.PaymentAmount, ti.ClaimApprover.PaymentAmount)
	}
}

func TestUnknownInvalidatorGating(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := installRental(t, chain, 0x20)

	// Attach a reference owned by an unrelated program.
	rogue := addrOf(0x77)
	chain.put(rogue, addrOf(0x99), []byte{0x01})
	raw := chain.accounts[custodyAddr]
	custody := types.DecodeAccount(custodyAddr, raw.Owner, raw.Data).Custody()
	custody.Invalidators = append(custody.Invalidators, rogue)
	chain.putRecord(custodyAddr, params.CustodyProgramID, custody)

	// Excluded by default.
	r := New(chain, chain, nil, testConfig())
	got, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Empty(t, got)

	// Included when the marketplace opts in, carrying the flag.
	cfg := testConfig()
	cfg.Marketplace.ShowUnknownInvalidators = true
	r = New(chain, chain, nil, cfg)
	got, err = r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].HasUnknownInvalidators())
	require.Equal(t, []common.Address{rogue}, got[0].UnknownInvalidators)
}

func TestUndecodableMintDropsEntry(t *testing.T) {
	chain := newFakeChain()
	keep := installRental(t, chain, 0x20)
	drop := installRental(t, chain, 0x30)

	// Corrupt the second rental's mint account in place.
	dropRaw := chain.accounts[drop]
	dropCustody := types.DecodeAccount(drop, dropRaw.Owner, dropRaw.Data).Custody()
	chain.put(dropCustody.Mint, params.TokenProgramID, []byte{0xff})

	r := New(chain, chain, nil, testConfig())
	got, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, keep, got[0].Custody.Address)
}

func TestAbsentMintDegradesOnly(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := installRental(t, chain, 0x20)
	raw := chain.accounts[custodyAddr]
	custody := types.DecodeAccount(custodyAddr, raw.Owner, raw.Data).Custody()
	delete(chain.accounts, custody.Mint)

	r := New(chain, chain, nil, testConfig())
	got, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Nil(t, got[0].Mint)
}

func TestDisallowedMintsExcluded(t *testing.T) {
	chain := newFakeChain()
	custodyAddr := installRental(t, chain, 0x20)
	raw := chain.accounts[custodyAddr]
	custody := types.DecodeAccount(custodyAddr, raw.Owner, raw.Data).Custody()

	cfg := testConfig()
	cfg.Marketplace.DisallowedMints = []common.Address{custody.Mint}
	r := New(chain, chain, nil, cfg)
	got, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIssuerFilterExcludesOthers(t *testing.T) {
	chain := newFakeChain()
	installRental(t, chain, 0x20)

	cfg := testConfig()
	cfg.Marketplace.Filter.Value = []common.Address{addrOf(0x2b)}
	r := New(chain, chain, nil, cfg)
	got, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStateFilterRespected(t *testing.T) {
	chain := newFakeChain()
	installRental(t, chain, 0x20)

	r := New(chain, chain, nil, testConfig())
	got, err := r.Resolve(context.Background(), types.StateClaimed)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestResolveIdempotent(t *testing.T) {
	chain := newFakeChain()
	installRental(t, chain, 0x20)

	r := New(chain, chain, nil, testConfig())
	first, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	require.Equal(t, first[0].Custody.Address, second[0].Custody.Address)
}

func TestResolveNoSupplier(t *testing.T) {
	r := New(newFakeChain(), nil, nil, testConfig())
	_, err := r.Resolve(context.Background(), types.StateIssued)
	require.ErrorIs(t, err, ErrNoSupplier)
}

func TestIndexDisabledForcesDirectPath(t *testing.T) {
	chain := newFakeChain()
	installRental(t, chain, 0x20)

	// A supplier that must not be called.
	var called bool
	idx := candidateFunc(func(context.Context, params.Filter, types.CustodyState) ([]Candidate, error) {
		called = true
		return nil, nil
	})

	cfg := testConfig()
	cfg.Marketplace.IndexDisabled = true
	r := New(chain, chain, idx, cfg)
	got, err := r.Resolve(context.Background(), types.StateIssued)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.False(t, called, "index supplier must be bypassed when disabled")
}

type candidateFunc func(context.Context, params.Filter, types.CustodyState) ([]Candidate, error)

func (f candidateFunc) Candidates(ctx context.Context, filter params.Filter, state types.CustodyState) ([]Candidate, error) {
	return f(ctx, filter, state)
}
