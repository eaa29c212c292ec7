package index

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/params"
)

func addrOf(b byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func indexServer(t *testing.T, rows []map[string]interface{}, capture *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if capture != nil {
			*capture = req.Variables
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"custodyRecords": rows},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCandidatesParsesRows(t *testing.T) {
	custody := addrOf(0x20)
	issuer := addrOf(0x1a)
	mint := addrOf(0x21)
	inv := addrOf(0x22)

	rows := []map[string]interface{}{
		{
			"address":        custody.String(),
			"issuer":         issuer.String(),
			"mint":           mint.String(),
			"state":          int(types.StateIssued),
			"stateChangedAt": 1_700_000_000,
			"invalidators":   []string{inv.String()},
		},
		{
			// Malformed row: skipped, not fatal.
			"address":      "???",
			"invalidators": []string{},
		},
	}
	var vars map[string]interface{}
	srv := indexServer(t, rows, &vars)

	c := NewClient(srv.URL, nil, srv.Client())
	got, err := c.Candidates(context.Background(),
		params.Filter{Type: params.FilterIssuer, Value: []common.Address{issuer}},
		types.StateIssued)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, custody, got[0].Address)
	require.True(t, got[0].HasInvalidatorRefs)
	require.Equal(t, []common.Address{inv}, got[0].InvalidatorRefs)

	// The filter and state are pushed down as variables.
	require.Equal(t, float64(types.StateIssued), vars["state"])
	require.Equal(t, []interface{}{issuer.String()}, vars["issuers"])
}

func TestCandidatesPushesDownDisallowedMints(t *testing.T) {
	var vars map[string]interface{}
	srv := indexServer(t, nil, &vars)

	banned := addrOf(0x66)
	c := NewClient(srv.URL, []common.Address{banned}, srv.Client())
	got, err := c.Candidates(context.Background(), params.Filter{}, types.StateIssued)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, []interface{}{banned.String()}, vars["disallowedMints"])
}

func TestCandidatesPropagatesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, nil, srv.Client())
	_, err := c.Candidates(context.Background(), params.Filter{}, types.StateIssued)
	require.Error(t, err)
	require.NotEmpty(t, fmt.Sprint(err))
}
