package rentclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/params"
	"github.com/solana-nft-programs/rental-resolver/resolver"
)

func addrOf(b byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func rpcServer(t *testing.T, handler func(method string, params []json.RawMessage) (interface{}, error)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result, err := handler(req.Method, req.Params)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if err != nil {
			resp["error"] = map[string]interface{}{"code": -32000, "message": err.Error()}
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wireAccount(owner common.Address, data []byte) map[string]interface{} {
	return map[string]interface{}{
		"owner":    owner.String(),
		"data":     []string{base64.StdEncoding.EncodeToString(data), "base64"},
		"lamports": 1,
	}
}

func TestAccountInfos(t *testing.T) {
	use := &types.UseInvalidatorRecord{Custody: addrOf(0x01), Usages: 2}
	data, err := use.MarshalBinary()
	require.NoError(t, err)

	srv := rpcServer(t, func(method string, _ []json.RawMessage) (interface{}, error) {
		require.Equal(t, "getMultipleAccounts", method)
		return map[string]interface{}{
			"value": []interface{}{wireAccount(params.UseInvalidatorProgramID, data), nil},
		}, nil
	})

	c := Dial(srv.URL)
	got, err := c.AccountInfos(context.Background(), []common.Address{addrOf(0x02), addrOf(0x03)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0])
	require.Equal(t, params.UseInvalidatorProgramID, got[0].Owner)
	require.Equal(t, data, got[0].Data)
	require.Nil(t, got[1], "absent account must come back nil")
}

func TestAccountInfosToleratesMalformedEntry(t *testing.T) {
	srv := rpcServer(t, func(string, []json.RawMessage) (interface{}, error) {
		return map[string]interface{}{
			"value": []interface{}{
				map[string]interface{}{"owner": "!!!not-base58", "data": []string{"", "base64"}, "lamports": 0},
			},
		}, nil
	})
	c := Dial(srv.URL)
	got, err := c.AccountInfos(context.Background(), []common.Address{addrOf(0x02)})
	require.NoError(t, err, "one malformed entry must not fail the batch")
	require.Nil(t, got[0])
}

func TestProgramAccountsSendsFilters(t *testing.T) {
	custody := &types.CustodyRecord{
		State:            types.StateIssued,
		Kind:             types.KindManaged,
		InvalidationType: types.PolicyReturn,
		Mint:             addrOf(0x05),
		Issuer:           addrOf(0x06),
	}
	data, err := custody.MarshalBinary()
	require.NoError(t, err)
	recordAddr := addrOf(0x07)

	srv := rpcServer(t, func(method string, rawParams []json.RawMessage) (interface{}, error) {
		require.Equal(t, "getProgramAccounts", method)
		var program string
		require.NoError(t, json.Unmarshal(rawParams[0], &program))
		require.Equal(t, params.CustodyProgramID.String(), program)

		var cfg struct {
			Filters []struct {
				Memcmp struct {
					Offset uint64 `json:"offset"`
					Bytes  string `json:"bytes"`
				} `json:"memcmp"`
			} `json:"filters"`
		}
		require.NoError(t, json.Unmarshal(rawParams[1], &cfg))
		require.Len(t, cfg.Filters, 1)
		require.Equal(t, uint64(1), cfg.Filters[0].Memcmp.Offset)

		return []interface{}{
			map[string]interface{}{"pubkey": recordAddr.String(), "account": wireAccount(params.CustodyProgramID, data)},
		}, nil
	})

	c := Dial(srv.URL)
	got, err := c.ProgramAccounts(context.Background(), params.CustodyProgramID,
		resolver.ScanFilter{Offset: 1, Bytes: []byte{byte(types.StateIssued)}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, data, got[recordAddr].Data)
}

func TestCallPropagatesRPCError(t *testing.T) {
	srv := rpcServer(t, func(string, []json.RawMessage) (interface{}, error) {
		return nil, fmt.Errorf("node unhealthy")
	})
	c := Dial(srv.URL)
	_, err := c.AccountInfos(context.Background(), []common.Address{addrOf(0x01)})
	require.ErrorContains(t, err, "node unhealthy")
}
