package chain

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeNode answers the handful of JSON-RPC methods the binding uses.
type fakeNode struct {
	t       *testing.T
	chainID int64
	balance *big.Int
	callErr bool

	mu     sync.Mutex
	sent   []*types.Transaction
	called []string
}

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []any           `json:"params"`
}

func (n *fakeNode) failCalls() {
	n.mu.Lock()
	n.callErr = true
	n.mu.Unlock()
}

func (n *fakeNode) sentTxs() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

func (n *fakeNode) sawMethod(method string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.called {
		if m == method {
			return true
		}
	}
	return false
}

func (n *fakeNode) serve() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			n.t.Errorf("decode rpc request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n.mu.Lock()
		n.called = append(n.called, req.Method)
		callErr := n.callErr
		n.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = hexutil.EncodeBig(big.NewInt(n.chainID))
		case "eth_blockNumber":
			resp["result"] = "0x10"
		case "eth_call":
			if callErr {
				resp["error"] = map[string]any{"code": -32000, "message": "execution reverted"}
				break
			}
			resp["result"] = hexutil.Encode(common.LeftPadBytes(n.balance.Bytes(), 32))
		case "eth_getTransactionCount":
			resp["result"] = "0x3"
		case "eth_gasPrice":
			resp["result"] = "0x3b9aca00"
		case "eth_sendRawTransaction":
			raw, err := hexutil.Decode(req.Params[0].(string))
			if err != nil {
				n.t.Errorf("decode raw tx: %v", err)
			}
			tx := new(types.Transaction)
			if err := tx.UnmarshalBinary(raw); err != nil {
				n.t.Errorf("unmarshal raw tx: %v", err)
			}
			n.mu.Lock()
			n.sent = append(n.sent, tx)
			n.mu.Unlock()
			resp["result"] = tx.Hash().Hex()
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}
