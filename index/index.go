// Package index queries the secondary GraphQL index for candidate custody
// records. It implements the resolver's CandidateSupplier, carrying the
// index's embedded invalidator reference lists so the indexed path never
// needs a second round-trip to discover them.
package index

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	log "github.com/inconshreveable/log15"
	"github.com/machinebox/graphql"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/params"
	"github.com/solana-nft-programs/rental-resolver/resolver"
)

const custodyQuery = `
query CustodyRecords($state: Int!, $issuers: [String!], $creators: [String!], $disallowedMints: [String!]) {
  custodyRecords(state: $state, issuers: $issuers, creators: $creators, disallowedMints: $disallowedMints) {
    address
    issuer
    mint
    state
    stateChangedAt
    invalidators
  }
}`

// row is one candidate row as returned by the index.
type row struct {
	Address        string   `json:"address"`
	Issuer         string   `json:"issuer"`
	Mint           string   `json:"mint"`
	State          int      `json:"state"`
	StateChangedAt int64    `json:"stateChangedAt"`
	Invalidators   []string `json:"invalidators"`
}

// Client queries the secondary index.
type Client struct {
	gql *graphql.Client
	// disallowedMints is pushed down into every query; the resolver
	// re-checks it so the pushdown is purely a bandwidth optimization.
	disallowedMints []common.Address
	log             log.Logger
}

// NewClient creates an index client for the given GraphQL endpoint. A nil
// httpClient uses http.DefaultClient.
func NewClient(endpoint string, disallowedMints []common.Address, httpClient *http.Client) *Client {
	opts := []graphql.ClientOption{}
	if httpClient != nil {
		opts = append(opts, graphql.WithHTTPClient(httpClient))
	}
	return &Client{
		gql:             graphql.NewClient(endpoint, opts...),
		disallowedMints: disallowedMints,
		log:             log.New("module", "index"),
	}
}

// Candidates implements resolver.CandidateSupplier over the index. Rows with
// malformed addresses are skipped with a warning rather than failing the
// query; a transport failure is propagated wholesale.
func (c *Client) Candidates(ctx context.Context, filter params.Filter, state types.CustodyState) ([]resolver.Candidate, error) {
	req := graphql.NewRequest(custodyQuery)
	req.Var("state", int(state))
	switch filter.Type {
	case params.FilterIssuer:
		req.Var("issuers", encodeAddresses(filter.Value))
	case params.FilterCreators:
		req.Var("creators", encodeAddresses(filter.Value))
	}
	req.Var("disallowedMints", encodeAddresses(c.disallowedMints))

	queryID := uuid.New().String()
	var resp struct {
		CustodyRecords []row `json:"custodyRecords"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("index query %s: %w", queryID, err)
	}
	c.log.Debug("index query complete", "id", queryID, "rows", len(resp.CustodyRecords), "state", state)

	out := make([]resolver.Candidate, 0, len(resp.CustodyRecords))
	for _, r := range resp.CustodyRecords {
		addr, err := common.Base58ToAddress(r.Address)
		if err != nil {
			c.log.Warn("skipping index row with bad address", "id", queryID, "address", r.Address, "err", err)
			continue
		}
		refs := make([]common.Address, 0, len(r.Invalidators))
		for _, inv := range r.Invalidators {
			ref, err := common.Base58ToAddress(inv)
			if err != nil {
				c.log.Warn("skipping bad invalidator reference", "id", queryID, "custody", addr, "ref", inv, "err", err)
				continue
			}
			refs = append(refs, ref)
		}
		out = append(out, resolver.Candidate{
			Address:            addr,
			InvalidatorRefs:    refs,
			HasInvalidatorRefs: true,
		})
	}
	return out, nil
}

func encodeAddresses(addrs []common.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}
