package resolver

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set"
	"golang.org/x/sync/errgroup"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/metrics"
)

// maxAccountBatch caps the number of account ids per transport round-trip.
const maxAccountBatch = 100

// RawAccount is an undecoded account as returned by the transport.
type RawAccount struct {
	Owner    common.Address
	Data     []byte
	Lamports uint64
}

// AccountReader is the batched account-fetch collaborator (RPC transport).
// The result slice is parallel to ids; a nil entry means the account does
// not exist.
type AccountReader interface {
	AccountInfos(ctx context.Context, ids []common.Address) ([]*RawAccount, error)
}

// ScanFilter restricts a program scan to accounts whose data matches bytes
// at a fixed offset.
type ScanFilter struct {
	Offset uint64
	Bytes  []byte
}

// ProgramScanner enumerates all accounts owned by a program. It backs the
// direct resolution path when no secondary index is available.
type ProgramScanner interface {
	ProgramAccounts(ctx context.Context, program common.Address, filters ...ScanFilter) (map[common.Address]*RawAccount, error)
}

var (
	accountsFetchedCounter = metrics.NewCounter("resolver/accounts/fetched")
	accountsUnknownCounter = metrics.NewCounter("resolver/accounts/unknown")
	fetchBatchCounter      = metrics.NewCounter("resolver/fetch/batches")
)

// FetchAccounts resolves a set of addresses to decoded records. Ids are
// deduplicated and zero addresses skipped; accounts that do not exist are
// simply absent from the result, and accounts matching no known schema are
// tagged types.KindUnknown. A single malformed account never fails the
// batch; only a transport error does.
func FetchAccounts(ctx context.Context, reader AccountReader, ids []common.Address) (map[common.Address]*types.Account, error) {
	seen := mapset.NewThreadUnsafeSet()
	unique := make([]common.Address, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if seen.Add(id) {
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return map[common.Address]*types.Account{}, nil
	}

	out := make(map[common.Address]*types.Account, len(unique))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(unique); start += maxAccountBatch {
		end := start + maxAccountBatch
		if end > len(unique) {
			end = len(unique)
		}
		chunk := unique[start:end]
		g.Go(func() error {
			raws, err := reader.AccountInfos(gctx, chunk)
			if err != nil {
				return err
			}
			fetchBatchCounter.Inc(1)
			mu.Lock()
			defer mu.Unlock()
			for i, raw := range raws {
				if i >= len(chunk) {
					break
				}
				if raw == nil {
					continue
				}
				acc := types.DecodeAccount(chunk[i], raw.Owner, raw.Data)
				if acc.Kind == types.KindUnknown {
					accountsUnknownCounter.Inc(1)
				}
				accountsFetchedCounter.Inc(1)
				out[chunk[i]] = acc
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
