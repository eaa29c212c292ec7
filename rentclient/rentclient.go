// Package rentclient provides a typed client for the chain's JSON-RPC API,
// implementing the resolver's AccountReader and ProgramScanner over batched
// account queries.
package rentclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	log "github.com/inconshreveable/log15"
	"github.com/mr-tron/base58"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/resolver"
)

// Client defines typed wrappers for the account-read RPC API.
type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Uint64
	log      log.Logger
}

// Dial connects a client to the given RPC endpoint.
func Dial(endpoint string) *Client {
	return DialWithClient(endpoint, http.DefaultClient)
}

// DialWithClient connects a client using a caller-supplied HTTP client.
func DialWithClient(endpoint string, httpClient *http.Client) *Client {
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		log:      log.New("module", "rentclient"),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, method)
	}
	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("malformed rpc response for %s: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	return json.Unmarshal(rpcResp.Result, result)
}

// accountInfo is the wire form of one account.
type accountInfo struct {
	Owner    string          `json:"owner"`
	Data     json.RawMessage `json:"data"`
	Lamports uint64          `json:"lamports"`
}

func (a *accountInfo) decode() (*resolver.RawAccount, error) {
	owner, err := common.Base58ToAddress(a.Owner)
	if err != nil {
		return nil, fmt.Errorf("bad account owner: %w", err)
	}
	// Data arrives as ["<base64>", "base64"].
	var tuple []string
	if err := json.Unmarshal(a.Data, &tuple); err != nil || len(tuple) < 1 {
		return nil, fmt.Errorf("bad account data encoding")
	}
	data, err := base64.StdEncoding.DecodeString(tuple[0])
	if err != nil {
		return nil, fmt.Errorf("bad account data: %w", err)
	}
	return &resolver.RawAccount{Owner: owner, Data: data, Lamports: a.Lamports}, nil
}

// AccountInfos implements resolver.AccountReader via getMultipleAccounts.
// The result is parallel to ids; nonexistent accounts come back nil, and a
// single undecodable entry degrades to nil rather than failing the batch.
func (c *Client) AccountInfos(ctx context.Context, ids []common.Address) ([]*resolver.RawAccount, error) {
	encoded := make([]string, len(ids))
	for i, id := range ids {
		encoded[i] = id.String()
	}
	var result struct {
		Value []*accountInfo `json:"value"`
	}
	params := []interface{}{encoded, map[string]interface{}{"encoding": "base64"}}
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}
	out := make([]*resolver.RawAccount, len(ids))
	for i, info := range result.Value {
		if i >= len(out) || info == nil {
			continue
		}
		raw, err := info.decode()
		if err != nil {
			c.log.Warn("undecodable account in batch", "address", ids[i], "err", err)
			continue
		}
		out[i] = raw
	}
	return out, nil
}

// ProgramAccounts implements resolver.ProgramScanner via getProgramAccounts
// with memcmp filters.
func (c *Client) ProgramAccounts(ctx context.Context, program common.Address, filters ...resolver.ScanFilter) (map[common.Address]*resolver.RawAccount, error) {
	cfg := map[string]interface{}{"encoding": "base64"}
	if len(filters) > 0 {
		memcmps := make([]interface{}, 0, len(filters))
		for _, f := range filters {
			memcmps = append(memcmps, map[string]interface{}{
				"memcmp": map[string]interface{}{
					"offset": f.Offset,
					"bytes":  base58.Encode(f.Bytes),
				},
			})
		}
		cfg["filters"] = memcmps
	}
	var result []struct {
		Pubkey  string       `json:"pubkey"`
		Account *accountInfo `json:"account"`
	}
	if err := c.call(ctx, "getProgramAccounts", []interface{}{program.String(), cfg}, &result); err != nil {
		return nil, err
	}
	out := make(map[common.Address]*resolver.RawAccount, len(result))
	for _, entry := range result {
		addr, err := common.Base58ToAddress(entry.Pubkey)
		if err != nil || entry.Account == nil {
			c.log.Warn("skipping malformed program account", "pubkey", entry.Pubkey, "err", err)
			continue
		}
		raw, err := entry.Account.decode()
		if err != nil {
			c.log.Warn("skipping undecodable program account", "pubkey", entry.Pubkey, "err", err)
			continue
		}
		out[addr] = raw
	}
	return out, nil
}
