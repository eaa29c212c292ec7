package resolver

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	log "github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/metrics"
	"github.com/solana-nft-programs/rental-resolver/params"
)

// ErrNoSupplier is returned when a resolution pass has no usable candidate
// source (no index configured and no program scanner).
var ErrNoSupplier = errors.New("no candidate supplier available")

// Candidate is one custody record address to resolve, as produced by a
// candidate supplier. The indexed path pre-populates InvalidatorRefs from
// the index payload; the direct path leaves HasInvalidatorRefs false, which
// makes the aggregator derive the canonical addresses instead.
type Candidate struct {
	Address common.Address

	// Custody is the pre-decoded record when the supplier already has it
	// (program scan); nil means the aggregator fetches it.
	Custody *types.CustodyRecord

	InvalidatorRefs    []common.Address
	HasInvalidatorRefs bool
}

// CandidateSupplier produces the candidate set for a resolution pass. The
// indexed and direct implementations must make the shared aggregation
// routine converge on identical TokenData output for the same underlying
// chain state.
type CandidateSupplier interface {
	Candidates(ctx context.Context, filter params.Filter, state types.CustodyState) ([]Candidate, error)
}

// Config bundles the resolver's configuration surface.
type Config struct {
	Marketplace params.MarketplaceConfig
	Metadata    MetadataConfig
}

// Resolver turns fragmented on-chain records into TokenData aggregates. It
// is a pure pipeline: it holds no per-call state, may be invoked repeatedly
// with identical inputs, and an in-flight resolution may be abandoned by
// cancelling its context.
type Resolver struct {
	reader AccountReader
	direct CandidateSupplier
	index  CandidateSupplier
	meta   *MetadataFetcher
	cfg    params.MarketplaceConfig
	log    log.Logger
}

var resolveTimer = metrics.NewTimer("resolver/resolve")

// New creates a resolver. scanner backs the direct path and may be nil when
// an index supplier is provided (and vice versa).
func New(reader AccountReader, scanner ProgramScanner, index CandidateSupplier, cfg Config) *Resolver {
	r := &Resolver{
		reader: reader,
		index:  index,
		cfg:    cfg.Marketplace,
		log:    log.New("module", "resolver"),
	}
	if scanner != nil {
		r.direct = &directSupplier{scanner: scanner}
	}
	if !cfg.Metadata.Disabled {
		r.meta = NewMetadataFetcher(nil, cfg.Metadata)
	}
	return r
}

// Resolve produces the TokenData set for all custody records in the given
// state matching the configured filter. The indexed path is preferred when
// an index is configured and not disabled; both paths produce identical
// aggregates.
func (r *Resolver) Resolve(ctx context.Context, state types.CustodyState) ([]*types.TokenData, error) {
	defer resolveTimer.UpdateSince(time.Now())

	supplier := r.direct
	path := "direct"
	if r.index != nil && !r.cfg.IndexDisabled {
		supplier = r.index
		path = "indexed"
	}
	if supplier == nil {
		return nil, ErrNoSupplier
	}
	candidates, err := supplier.Candidates(ctx, r.cfg.Filter, state)
	if err != nil {
		return nil, err
	}
	r.log.Debug("resolving candidates", "path", path, "count", len(candidates), "state", state)
	return r.aggregate(ctx, candidates, state)
}

// plan is one candidate's resolved reference set ahead of the related-record
// batch fetch.
type plan struct {
	custody       *types.CustodyRecord
	refs          []common.Address
	claimApprover common.Address
	metadataAddr  common.Address
	editionAddr   common.Address
}

// aggregate is the single aggregation routine shared by both paths.
func (r *Resolver) aggregate(ctx context.Context, candidates []Candidate, state types.CustodyState) ([]*types.TokenData, error) {
	// First wave: fetch custody records the supplier did not carry.
	var missing []common.Address
	for _, c := range candidates {
		if c.Custody == nil {
			missing = append(missing, c.Address)
		}
	}
	if len(missing) > 0 {
		fetched, err := FetchAccounts(ctx, r.reader, missing)
		if err != nil {
			return nil, err
		}
		for i := range candidates {
			if candidates[i].Custody == nil {
				candidates[i].Custody = fetched[candidates[i].Address].Custody()
			}
		}
	}

	// Derive reference plans concurrently; canonical address search is pure
	// CPU but iterates bump bytes per derivation.
	plans := make([]*plan, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	for i := range candidates {
		i := i
		g.Go(func() error {
			cand := candidates[i]
			custody := cand.Custody
			if custody == nil || custody.State != state {
				return nil
			}
			p := &plan{custody: custody}
			if cand.HasInvalidatorRefs {
				p.refs = cand.InvalidatorRefs
			} else {
				timeAddr, err := TimeInvalidatorAddress(custody.Address)
				if err != nil {
					return err
				}
				useAddr, err := UseInvalidatorAddress(custody.Address)
				if err != nil {
					return err
				}
				p.refs = append(p.refs, custody.Invalidators...)
				if !common.AddressSliceContains(p.refs, timeAddr) {
					p.refs = append(p.refs, timeAddr)
				}
				if !common.AddressSliceContains(p.refs, useAddr) {
					p.refs = append(p.refs, useAddr)
				}
			}
			if custody.ClaimApprover != nil {
				p.claimApprover = *custody.ClaimApprover
			} else {
				approver, err := ClaimApproverAddress(custody.Address)
				if err != nil {
					return err
				}
				p.claimApprover = approver
			}
			metadataAddr, err := MetadataAddress(custody.Mint)
			if err != nil {
				return err
			}
			editionAddr, err := EditionAddress(custody.Mint)
			if err != nil {
				return err
			}
			p.metadataAddr = metadataAddr
			p.editionAddr = editionAddr
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Second wave: one batch for every related record of every candidate.
	var related []common.Address
	for _, p := range plans {
		if p == nil {
			continue
		}
		related = append(related, p.refs...)
		related = append(related, p.claimApprover, p.metadataAddr, p.editionAddr, p.custody.Mint)
		if p.custody.RecipientTokenAccount != nil {
			related = append(related, *p.custody.RecipientTokenAccount)
		}
	}
	accounts, err := FetchAccounts(ctx, r.reader, related)
	if err != nil {
		return nil, err
	}

	out := make([]*types.TokenData, 0, len(plans))
	for _, p := range plans {
		if p == nil {
			continue
		}
		td, ok := r.assemble(p, accounts)
		if !ok {
			continue
		}
		out = append(out, td)
	}

	if r.meta != nil {
		if err := r.meta.FetchAll(ctx, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// assemble builds one aggregate from a plan and the fetched account map,
// applying the marketplace's gating rules. ok is false when the candidate is
// excluded from the result set.
func (r *Resolver) assemble(p *plan, accounts map[common.Address]*types.Account) (*types.TokenData, bool) {
	custody := p.custody

	if common.AddressSliceContains(r.cfg.DisallowedMints, custody.Mint) {
		return nil, false
	}

	cls, err := ClassifyInvalidators(custody.Address, custody.Issuer, p.refs, accounts, r.log)
	if err != nil {
		r.log.Warn("invalidator classification failed", "custody", custody.Address, "err", err)
		return nil, false
	}
	if len(cls.Unknown) > 0 && !r.cfg.ShowUnknownInvalidators {
		r.log.Debug("excluding asset with unknown invalidators", "custody", custody.Address, "refs", len(cls.Unknown))
		return nil, false
	}

	td := &types.TokenData{
		Custody:             custody,
		TimeInvalidator:     cls.TimeInvalidator,
		UseInvalidator:      cls.UseInvalidator,
		UnknownInvalidators: cls.Unknown,
	}

	// A mint account that exists but fails to decode invalidates the whole
	// entry; an absent mint only degrades the aggregate.
	if acc := accounts[custody.Mint]; acc != nil {
		mint := acc.Mint()
		if mint == nil {
			r.log.Warn("dropping asset with undecodable mint", "custody", custody.Address, "mint", custody.Mint)
			return nil, false
		}
		td.Mint = mint
	}

	if acc := accounts[p.claimApprover]; acc != nil {
		if approver := acc.PaymentApproval(); approver != nil && approver.Custody == custody.Address {
			td.ClaimApprover = approver
		}
	}
	if acc := accounts[p.metadataAddr]; acc != nil {
		td.Metadata = acc.Metadata()
	}
	if acc := accounts[p.editionAddr]; acc != nil {
		td.Edition = acc.Edition()
	}
	if custody.RecipientTokenAccount != nil {
		if acc := accounts[*custody.RecipientTokenAccount]; acc != nil {
			td.RecipientTokenAccount = acc.TokenAccount()
		}
	}

	if !r.matchesFilter(td) {
		return nil, false
	}
	return td, true
}

// matchesFilter applies the marketplace candidate filter. Suppliers narrow
// candidates up front where they can; re-checking here keeps both paths
// honest and covers the creators filter, which the direct path can only
// evaluate after metadata is available.
func (r *Resolver) matchesFilter(td *types.TokenData) bool {
	f := r.cfg.Filter
	switch f.Type {
	case params.FilterIssuer:
		return common.AddressSliceContains(f.Value, td.Custody.Issuer)
	case params.FilterCreators:
		if td.Metadata == nil {
			return false
		}
		for _, creator := range td.Metadata.VerifiedCreators() {
			if common.AddressSliceContains(f.Value, creator) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// directSupplier enumerates custody records straight from program state.
type directSupplier struct {
	scanner ProgramScanner
}

// Custody record layout offsets used for scan filters.
const (
	custodyStateOffset  = 1
	custodyIssuerOffset = 4 + common.AddressLength // version, state, kind, policy, mint
)

func (s *directSupplier) Candidates(ctx context.Context, filter params.Filter, state types.CustodyState) ([]Candidate, error) {
	stateFilter := ScanFilter{Offset: custodyStateOffset, Bytes: []byte{byte(state)}}

	var filterSets [][]ScanFilter
	if filter.Type == params.FilterIssuer && len(filter.Value) > 0 {
		// One narrowed scan per issuer; merged below.
		for _, issuer := range filter.Value {
			filterSets = append(filterSets, []ScanFilter{
				stateFilter,
				{Offset: custodyIssuerOffset, Bytes: issuer.Bytes()},
			})
		}
	} else {
		filterSets = append(filterSets, []ScanFilter{stateFilter})
	}

	seen := make(map[common.Address]bool)
	var out []Candidate
	for _, filters := range filterSets {
		raws, err := s.scanner.ProgramAccounts(ctx, params.CustodyProgramID, filters...)
		if err != nil {
			return nil, err
		}
		for addr, raw := range raws {
			if seen[addr] {
				continue
			}
			seen[addr] = true
			custody := types.DecodeAccount(addr, raw.Owner, raw.Data).Custody()
			if custody == nil {
				continue
			}
			out = append(out, Candidate{Address: addr, Custody: custody})
		}
	}
	// Program scans return map-ordered results; sort for a deterministic
	// candidate order across passes.
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address.Bytes(), out[j].Address.Bytes()) < 0
	})
	return out, nil
}
