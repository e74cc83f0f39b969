package sui

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const testDigest = "11111111111111111111111111111111"

type rpcHandler func(params []json.RawMessage) (interface{}, error)

// fakeNode is a minimal JSON-RPC full node.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string][][]json.RawMessage
}

func newFakeNode() *fakeNode {
	n := &fakeNode{
		handlers: map[string]rpcHandler{},
		calls:    map[string][][]json.RawMessage{},
	}
	n.handle("sui_getLatestCheckpointSequenceNumber", func([]json.RawMessage) (interface{}, error) {
		return "42", nil
	})
	return n
}

func (n *fakeNode) handle(method string, h rpcHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *fakeNode) lastCall(method string) []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	calls := n.calls[method]
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}

func (n *fakeNode) callCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls[method])
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method] = append(n.calls[req.Method], req.Params)
	h := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if h == nil {
		resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
	} else if result, err := h(req.Params); err != nil {
		resp["error"] = map[string]interface{}{"code": -32000, "message": err.Error()}
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func testSeedHex() string {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 7)
	}
	return hex.EncodeToString(seed)
}

func newTestChain(t *testing.T, node *fakeNode, privateKey string) types.Chain {
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)

	logger, _ := test.NewNullLogger()
	chain, err := NewSuiChain(context.Background(), &types.ChainConfig{
		Name:       "Sui Testnet",
		ChainType:  types.SUI,
		Network:    "testnet",
		RpcUrl:     server.URL,
		PrivateKey: privateKey,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(chain.Close)
	return chain
}

func TestNewSuiChainReadOnly(t *testing.T) {
	node := newFakeNode()
	chain := newTestChain(t, node, "")

	require.True(t, chain.Healthy())
	require.Empty(t, chain.SignerAddress())

	_, err := chain.SendTransaction(context.Background(), ptb.New())
	require.True(t, errors.Is(err, commonErrors.ErrWalletNotConnected))

	_, err = chain.EstimateGas(context.Background(), ptb.New())
	require.True(t, errors.Is(err, commonErrors.ErrWalletNotConnected))
}

func TestNewSuiChainRejectsBadConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewSuiChain(context.Background(), &types.ChainConfig{Network: "testnet"}, logger)
	require.True(t, errors.Is(err, commonErrors.ErrInvalidConfig))

	node := newFakeNode()
	server := httptest.NewServer(node)
	defer server.Close()
	_, err = NewSuiChain(context.Background(), &types.ChainConfig{
		Network:    "testnet",
		RpcUrl:     server.URL,
		PrivateKey: "not a key",
	}, logger)
	require.Error(t, err)
}

func TestUnhealthyNode(t *testing.T) {
	node := newFakeNode()
	node.handle("sui_getLatestCheckpointSequenceNumber", func([]json.RawMessage) (interface{}, error) {
		return nil, errors.New("syncing")
	})
	chain := newTestChain(t, node, "")
	require.False(t, chain.Healthy())
}

func TestGetOwnedObjects(t *testing.T) {
	node := newFakeNode()
	node.handle("suix_getOwnedObjects", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{
			"data": [
				{"data": {"objectId": "0xa", "version": "3", "digest": "` + testDigest + `",
					"owner": {"AddressOwner": "0xowner"},
					"content": {"dataType": "moveObject", "type": "0x2::event::Event", "fields": {"name": "n"}}}},
				{"data": {"objectId": "0xb", "version": 4, "digest": "` + testDigest + `",
					"owner": {"Shared": {"initial_shared_version": 9}}}},
				{"data": {"objectId": "0xc", "version": "5", "digest": "` + testDigest + `", "owner": "Immutable"}}
			],
			"nextCursor": "0xb",
			"hasNextPage": true
		}`), nil
	})
	chain := newTestChain(t, node, "")

	page, err := chain.GetOwnedObjects(context.Background(), "0xowner", "0x2::event::Event", nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	require.True(t, page.HasNextPage)
	require.Equal(t, "0xb", *page.NextCursor)

	require.Equal(t, "0xowner", page.Data[0].Data.Owner.AddressOwner)
	require.Equal(t, types.Uint64String(3), page.Data[0].Data.Version)
	require.Equal(t, "n", page.Data[0].Data.Content.Fields["name"])
	require.True(t, page.Data[1].Data.Owner.Shared)
	require.Equal(t, uint64(9), page.Data[1].Data.Owner.InitialSharedVersion)
	require.True(t, page.Data[2].Data.Owner.Immutable)

	params := node.lastCall("suix_getOwnedObjects")
	require.Len(t, params, 4)
	require.JSONEq(t, `"0xowner"`, string(params[0]))
	require.JSONEq(t, `{"filter":{"StructType":"0x2::event::Event"},"options":{"showType":true,"showOwner":true,"showContent":true}}`, string(params[1]))
	require.JSONEq(t, `null`, string(params[2]))
	require.JSONEq(t, `50`, string(params[3]))
}

func TestMultiGetObjectsLimit(t *testing.T) {
	chain := newTestChain(t, newFakeNode(), "")

	ids := make([]string, types.MaxObjectsPerRequest+1)
	_, err := chain.MultiGetObjects(context.Background(), ids)
	require.Error(t, err)

	objects, err := chain.MultiGetObjects(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, objects)
}

func TestGetObjectNotFound(t *testing.T) {
	node := newFakeNode()
	node.handle("sui_getObject", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{"error": {"code": "notExists", "object_id": "0x1"}}`), nil
	})
	chain := newTestChain(t, node, "")

	_, err := chain.GetObject(context.Background(), "0x1")
	require.True(t, errors.Is(err, commonErrors.ErrObjectNotFound))
}

func TestQueryTransactionBlocks(t *testing.T) {
	node := newFakeNode()
	node.handle("suix_queryTransactionBlocks", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{
			"data": [{"digest": "d1", "timestampMs": "1700000000000",
				"objectChanges": [{"type": "created", "objectId": "0xe1", "objectType": "0x2::event::Event"}]}],
			"nextCursor": "d1",
			"hasNextPage": false
		}`), nil
	})
	chain := newTestChain(t, node, "")

	page, err := chain.QueryTransactionBlocks(context.Background(), types.TransactionQuery{
		MoveFunction:      types.MoveFunctionFilter{Package: "0x2", Module: "event", Function: "create_event"},
		ShowObjectChanges: true,
		Limit:             50,
		Descending:        true,
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, types.Uint64String(1_700_000_000_000), page.Data[0].TimestampMs)
	require.Equal(t, "0xe1", page.Data[0].ObjectChanges[0].ObjectID)

	params := node.lastCall("suix_queryTransactionBlocks")
	require.Len(t, params, 4)
	require.JSONEq(t, `{"filter":{"MoveFunction":{"package":"0x2","module":"event","function":"create_event"}},"options":{"showObjectChanges":true}}`, string(params[0]))
	require.JSONEq(t, `null`, string(params[1]))
	require.JSONEq(t, `50`, string(params[2]))
	require.JSONEq(t, `true`, string(params[3]))

	_, err = chain.QueryTransactionBlocks(context.Background(), types.TransactionQuery{})
	require.Error(t, err)
}

func TestGetBalanceAndCoins(t *testing.T) {
	node := newFakeNode()
	node.handle("suix_getBalance", func([]json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"coinType": "0x2::sui::SUI", "coinObjectCount": 2, "totalBalance": "5000000000"}, nil
	})
	node.handle("suix_getCoins", func(params []json.RawMessage) (interface{}, error) {
		if string(params[2]) == "null" {
			return json.RawMessage(`{"data":[{"coinType":"0x2::sui::SUI","coinObjectId":"0x1","version":"1","digest":"` + testDigest + `","balance":"10"}],"nextCursor":"0x1","hasNextPage":true}`), nil
		}
		return json.RawMessage(`{"data":[{"coinType":"0x2::sui::SUI","coinObjectId":"0x2","version":"1","digest":"` + testDigest + `","balance":"20"}],"nextCursor":null,"hasNextPage":false}`), nil
	})
	chain := newTestChain(t, node, "")

	balance, err := chain.GetBalance(context.Background(), "0xowner", types.SuiCoinType)
	require.NoError(t, err)
	require.Equal(t, "5000000000", balance.String())

	coins, err := chain.GetCoins(context.Background(), "0xowner", types.SuiCoinType)
	require.NoError(t, err)
	require.Len(t, coins, 2)
	require.Equal(t, 2, node.callCount("suix_getCoins"))
}

func TestPickGasCoins(t *testing.T) {
	coins := []types.Coin{
		{CoinObjectID: "0x1", Balance: 5},
		{CoinObjectID: "0x2", Balance: 50},
		{CoinObjectID: "0x3", Balance: 20},
		{CoinObjectID: "0x4", Balance: 100},
	}

	selected, err := pickGasCoins(coins, 60, map[string]bool{"0x4": true})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.Equal(t, "0x2", selected[0].CoinObjectID)
	require.Equal(t, "0x3", selected[1].CoinObjectID)

	_, err = pickGasCoins(coins, 1000, nil)
	require.True(t, errors.Is(err, commonErrors.ErrInsufficientBalance))

	// two small coins together cover a split larger than either of them
	large := []types.Coin{
		{CoinObjectID: "0x1", Balance: 3_000_000_000},
		{CoinObjectID: "0x2", Balance: 3_000_000_000},
	}
	selected, err = pickGasCoins(large, 5_000_000_000+5_000_000, nil)
	require.NoError(t, err)
	require.Len(t, selected, 2)
}

func TestPickGasCoinsLimit(t *testing.T) {
	coins := make([]types.Coin, MaxGasPaymentObjects+1)
	for i := range coins {
		coins[i] = types.Coin{CoinObjectID: fmt.Sprintf("0x%x", i+1), Balance: 1}
	}

	selected, err := pickGasCoins(coins, MaxGasPaymentObjects, nil)
	require.NoError(t, err)
	require.Len(t, selected, MaxGasPaymentObjects)

	_, err = pickGasCoins(coins, MaxGasPaymentObjects+1, nil)
	require.True(t, errors.Is(err, commonErrors.ErrInsufficientBalance))
}

func TestGasBudget(t *testing.T) {
	used := types.GasCostSummary{ComputationCost: 1_000_000, StorageCost: 500_000, StorageRebate: 100_000}
	require.Equal(t, uint64(2_400_000), gasBudget(used, 1000))

	// a large rebate never lowers the budget below computation plus overhead
	used.StorageRebate = 900_000
	require.Equal(t, uint64(2_000_000), gasBudget(used, 1000))
}

// txNode serves everything a full send needs.
func txNode(status string) *fakeNode {
	node := newFakeNode()
	node.handle("sui_multiGetObjects", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`[{"data": {"objectId": "0x00000000000000000000000000000000000000000000000000000000000000e1",
			"version": "12", "digest": "` + testDigest + `", "owner": {"Shared": {"initial_shared_version": 7}}}}]`), nil
	})
	node.handle("suix_getReferenceGasPrice", func([]json.RawMessage) (interface{}, error) {
		return "1000", nil
	})
	node.handle("suix_getCoins", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{"data":[
			{"coinType":"0x2::sui::SUI","coinObjectId":"0x51","version":"2","digest":"` + testDigest + `","balance":"3000000000"},
			{"coinType":"0x2::sui::SUI","coinObjectId":"0x52","version":"2","digest":"` + testDigest + `","balance":"1000"}
		],"nextCursor":null,"hasNextPage":false}`), nil
	})
	node.handle("sui_dryRunTransactionBlock", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{"effects":{"status":{"status":"success"},
			"gasUsed":{"computationCost":"1000000","storageCost":"500000","storageRebate":"100000"}}}`), nil
	})
	node.handle("sui_executeTransactionBlock", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{"digest":"txd1",
			"effects":{"status":{"status":"` + status + `","error":"MoveAbort(1)"},
				"gasUsed":{"computationCost":"1000000","storageCost":"500000","storageRebate":"100000"}},
			"objectChanges":[{"type":"created","objectId":"0xnew"},{"type":"mutated","objectId":"0xe1"}]}`), nil
	})
	return node
}

func TestSendTransaction(t *testing.T) {
	node := txNode("success")
	chain := newTestChain(t, node, testSeedHex())
	require.Len(t, chain.SignerAddress(), 66)

	tx := ptb.New()
	tx.MoveCall("0x2::event::join_event", tx.Object("0xe1"), tx.PureU64(1))

	result, err := chain.SendTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, "txd1", result.Digest)
	require.Equal(t, types.TxDone, result.Status)
	require.Equal(t, []string{"0xnew"}, result.CreatedObjects)
	require.Equal(t, uint64(1_400_000), result.GasUsed)
	require.Equal(t, chain.SignerAddress(), result.Sender)

	params := node.lastCall("sui_executeTransactionBlock")
	require.Len(t, params, 4)

	var txB64 string
	require.NoError(t, json.Unmarshal(params[0], &txB64))
	txBytes, err := base64.StdEncoding.DecodeString(txB64)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0}, txBytes[:2])
	// tail: gas price, gas budget, no expiration
	tail := txBytes[len(txBytes)-17:]
	require.Equal(t, uint64(1000), binary.LittleEndian.Uint64(tail[:8]))
	require.Equal(t, uint64(2_400_000), binary.LittleEndian.Uint64(tail[8:16]))
	require.Equal(t, byte(0), tail[16])

	var signatures []string
	require.NoError(t, json.Unmarshal(params[1], &signatures))
	require.Len(t, signatures, 1)
	sig, err := base64.StdEncoding.DecodeString(signatures[0])
	require.NoError(t, err)
	require.Len(t, sig, 97)

	require.JSONEq(t, `"WaitForLocalExecution"`, string(params[3]))
}

func TestSendTransactionGasCoversSplit(t *testing.T) {
	node := txNode("success")
	node.handle("suix_getCoins", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{"data":[
			{"coinType":"0x2::sui::SUI","coinObjectId":"0x51","version":"2","digest":"` + testDigest + `","balance":"3000000000"},
			{"coinType":"0x2::sui::SUI","coinObjectId":"0x52","version":"2","digest":"` + testDigest + `","balance":"3000000000"}
		],"nextCursor":null,"hasNextPage":false}`), nil
	})
	chain := newTestChain(t, node, testSeedHex())

	tx := ptb.New()
	reward := tx.SplitCoins(tx.Gas(), tx.PureU64(5_000_000_000))[0]
	tx.MoveCall("0x2::event::create_event", tx.Object("0xe1"), reward)

	_, err := chain.SendTransaction(context.Background(), tx)
	require.NoError(t, err)

	params := node.lastCall("sui_executeTransactionBlock")
	var txB64 string
	require.NoError(t, json.Unmarshal(params[0], &txB64))
	txBytes, err := base64.StdEncoding.DecodeString(txB64)
	require.NoError(t, err)

	// gas data ends with payment refs (73 bytes each), owner, price, budget and the expiration tag
	const refSize = 32 + 8 + 1 + 32
	countAt := len(txBytes) - 17 - 32 - 2*refSize - 1
	require.Equal(t, byte(2), txBytes[countAt])

	// a split beyond every coin fails before execution
	tx = ptb.New()
	reward = tx.SplitCoins(tx.Gas(), tx.PureU64(7_000_000_000))[0]
	tx.MoveCall("0x2::event::create_event", tx.Object("0xe1"), reward)
	_, err = chain.SendTransaction(context.Background(), tx)
	require.True(t, errors.Is(err, commonErrors.ErrInsufficientBalance))
}

func TestSendTransactionFixedBudgetSkipsDryRun(t *testing.T) {
	node := txNode("success")
	server := httptest.NewServer(node)
	defer server.Close()

	logger, _ := test.NewNullLogger()
	chain, err := NewSuiChain(context.Background(), &types.ChainConfig{
		Network:    "testnet",
		RpcUrl:     server.URL,
		PrivateKey: testSeedHex(),
		GasBudget:  10_000_000,
	}, logger)
	require.NoError(t, err)
	defer chain.Close()

	tx := ptb.New()
	tx.MoveCall("0x2::event::join_event", tx.Object("0xe1"))
	_, err = chain.SendTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Zero(t, node.callCount("sui_dryRunTransactionBlock"))
}

func TestSendTransactionAbort(t *testing.T) {
	chain := newTestChain(t, txNode("failure"), testSeedHex())

	tx := ptb.New()
	tx.MoveCall("0x2::event::join_event", tx.Object("0xe1"))

	result, err := chain.SendTransaction(context.Background(), tx)
	require.True(t, errors.Is(err, commonErrors.ErrTransactionFailed))
	require.NotNil(t, result)
	require.Equal(t, types.TxFailed, result.Status)
	require.Equal(t, "MoveAbort(1)", result.Error)
}

func TestEstimateGasRejectsFailingDryRun(t *testing.T) {
	node := txNode("success")
	node.handle("sui_dryRunTransactionBlock", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{"effects":{"status":{"status":"failure","error":"InsufficientGas"},"gasUsed":{}}}`), nil
	})
	chain := newTestChain(t, node, testSeedHex())

	tx := ptb.New()
	tx.MoveCall("0x2::event::join_event", tx.Object("0xe1"))
	_, err := chain.EstimateGas(context.Background(), tx)
	require.True(t, errors.Is(err, commonErrors.ErrTransactionFailed))
}

func TestWaitTransactionConfirmation(t *testing.T) {
	node := newFakeNode()
	node.handle("sui_getTransactionBlock", func([]json.RawMessage) (interface{}, error) {
		return json.RawMessage(`{"digest":"txd1","effects":{"status":{"status":"success"},"gasUsed":{}}}`), nil
	})
	chain := newTestChain(t, node, "")

	status, err := chain.WaitTransactionConfirmation(context.Background(), "txd1")
	require.NoError(t, err)
	require.Equal(t, types.TxDone, status)
}

func TestWaitTransactionConfirmationContextDone(t *testing.T) {
	chain := newTestChain(t, newFakeNode(), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, err := chain.WaitTransactionConfirmation(ctx, "missing")
	require.Error(t, err)
	require.Equal(t, types.TxNeedsRetry, status)
}
