package rentclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/inconshreveable/log15"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/resolver"
)

// AccountUpdate is a raw change notification for one program-owned account.
// The watcher performs no resolution; callers react by triggering a fresh
// resolution pass, which keeps the engine itself stateless.
type AccountUpdate struct {
	Address common.Address
	Account *resolver.RawAccount
}

// Watcher streams account updates for a program over a websocket
// subscription.
type Watcher struct {
	conn    *websocket.Conn
	updates chan AccountUpdate
	log     log.Logger

	closeOnce sync.Once
	done      chan struct{}
	errMu     sync.Mutex
	err       error
}

// DialWatcher subscribes to updates of every account owned by program at
// the given websocket endpoint.
func DialWatcher(ctx context.Context, endpoint string, program common.Address) (*Watcher, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	sub := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "programSubscribe",
		Params:  []interface{}{program.String(), map[string]interface{}{"encoding": "base64"}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	w := &Watcher{
		conn:    conn,
		updates: make(chan AccountUpdate, 64),
		done:    make(chan struct{}),
		log:     log.New("module", "rentclient/watcher", "program", program),
	}
	go w.readLoop()
	return w, nil
}

// Updates returns the stream of account updates. The channel is closed when
// the watcher stops; Err reports why.
func (w *Watcher) Updates() <-chan AccountUpdate { return w.updates }

// Err returns the error that stopped the watcher, if any.
func (w *Watcher) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

// Close terminates the subscription.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.conn.Close()
	})
}

type programNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Pubkey  string       `json:"pubkey"`
				Account *accountInfo `json:"account"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (w *Watcher) readLoop() {
	defer close(w.updates)
	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				// Closed by the caller.
			default:
				w.errMu.Lock()
				w.err = err
				w.errMu.Unlock()
				w.log.Warn("subscription read failed", "err", err)
			}
			return
		}
		var note programNotification
		if err := json.Unmarshal(msg, &note); err != nil || note.Method != "programNotification" {
			continue // subscription confirmations and unrelated frames
		}
		addr, err := common.Base58ToAddress(note.Params.Result.Value.Pubkey)
		if err != nil {
			w.log.Warn("bad pubkey in notification", "pubkey", note.Params.Result.Value.Pubkey)
			continue
		}
		var raw *resolver.RawAccount
		if note.Params.Result.Value.Account != nil {
			raw, err = note.Params.Result.Value.Account.decode()
			if err != nil {
				w.log.Warn("undecodable account in notification", "address", addr, "err", err)
				continue
			}
		}
		select {
		case w.updates <- AccountUpdate{Address: addr, Account: raw}:
		case <-w.done:
			return
		}
	}
}
