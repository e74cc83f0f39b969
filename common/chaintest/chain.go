// Package chaintest provides an in-memory types.Chain for tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/decoder"
	"github.com/pkg/errors"
)

var _ types.Chain = (*Chain)(nil)

// Chain is an in-memory chain. Objects, history, balances and coins are seeded by the test;
// submitted transactions are recorded and answered by SendFunc.
type Chain struct {
	mu sync.Mutex

	config  *types.ChainConfig
	signer  string
	healthy bool
	closed  bool

	objects   map[string]types.ObjectData
	owned     map[string][]string
	history   map[string][]types.TransactionBlock
	balances  map[string]*big.Int
	coins     map[string][]types.Coin
	failures  map[string]error
	calls     map[string]int
	sent      []*ptb.Transaction
	nextBlock int

	// SendFunc answers SendTransaction. When nil every transaction succeeds.
	SendFunc func(tx *ptb.Transaction) (*types.TransactionResult, error)
	// GasEstimate is returned by EstimateGas.
	GasEstimate uint64
}

// New creates an empty, healthy chain. signer is the address returned by SignerAddress, empty for a
// read-only chain.
func New(config *types.ChainConfig, signer string) *Chain {
	return &Chain{
		config:      config,
		signer:      signer,
		healthy:     true,
		objects:     map[string]types.ObjectData{},
		owned:       map[string][]string{},
		history:     map[string][]types.TransactionBlock{},
		balances:    map[string]*big.Int{},
		coins:       map[string][]types.Coin{},
		failures:    map[string]error{},
		calls:       map[string]int{},
		GasEstimate: 2_000_000,
	}
}

// MoveObject builds object data with Move content.
func MoveObject(id, structType string, fields map[string]any) types.ObjectData {
	return types.ObjectData{
		ObjectID: id,
		Version:  1,
		Digest:   "11111111111111111111111111111111",
		Type:     structType,
		Content: &types.ObjectContent{
			DataType: types.MoveObjectDataType,
			Type:     structType,
			Fields:   fields,
		},
	}
}

// AddObject stores an object, owned by owner when owner is not empty.
func (c *Chain) AddObject(owner string, obj types.ObjectData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if owner != "" {
		owner = ownerKey(owner)
		obj.Owner = &types.ObjectOwner{AddressOwner: owner}
		if _, exists := c.objects[obj.ObjectID]; !exists {
			c.owned[owner] = append(c.owned[owner], obj.ObjectID)
		}
	}
	c.objects[obj.ObjectID] = obj
}

// RemoveObject deletes an object.
func (c *Chain) RemoveObject(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, id)
}

// AddTransaction appends a transaction calling target ("package::module::function") to the history.
func (c *Chain) AddTransaction(target string, block types.TransactionBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if block.Digest == "" {
		c.nextBlock++
		block.Digest = "tx" + strconv.Itoa(c.nextBlock)
	}
	c.history[target] = append(c.history[target], block)
}

// SetBalance sets the balance of a coin type.
func (c *Chain) SetBalance(owner, coinType string, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[ownerKey(owner)+"|"+coinType] = amount
}

// SetCoins sets the coin objects of a coin type.
func (c *Chain) SetCoins(owner, coinType string, coins []types.Coin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coins[ownerKey(owner)+"|"+coinType] = coins
}

// SetHealthy sets the value reported by Healthy.
func (c *Chain) SetHealthy(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = healthy
}

// Fail makes every later call of method return err; a nil err clears the failure.
func (c *Chain) Fail(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, method)
		return
	}
	c.failures[method] = err
}

// Calls returns how many times method was called.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Sent returns the submitted transactions.
func (c *Chain) Sent() []*ptb.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ptb.Transaction, len(c.sent))
	copy(out, c.sent)
	return out
}

// Closed reports whether Close was called.
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// enter counts a call and returns the configured failure. Callers hold c.mu.
func (c *Chain) enter(method string) error {
	c.calls[method]++
	return c.failures[method]
}

func (c *Chain) GetObject(_ context.Context, id string) (*types.ObjectResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("GetObject"); err != nil {
		return nil, err
	}
	obj, ok := c.objects[id]
	if !ok {
		return nil, errors.Wrapf(commonErrors.ErrObjectNotFound, "%s", id)
	}
	return &types.ObjectResponse{Data: &obj}, nil
}

func (c *Chain) MultiGetObjects(_ context.Context, ids []string) ([]types.ObjectResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("MultiGetObjects"); err != nil {
		return nil, err
	}
	if len(ids) > types.MaxObjectsPerRequest {
		return nil, errors.Errorf("at most %d objects per request, got %d", types.MaxObjectsPerRequest, len(ids))
	}

	out := make([]types.ObjectResponse, len(ids))
	for i, id := range ids {
		if obj, ok := c.objects[id]; ok {
			obj := obj
			out[i] = types.ObjectResponse{Data: &obj}
		} else {
			out[i] = types.ObjectResponse{Error: []byte(fmt.Sprintf(`{"code":"notExists","object_id":%q}`, id))}
		}
	}
	return out, nil
}

func (c *Chain) GetOwnedObjects(_ context.Context, owner, structType string, cursor *string, limit uint) (*types.ObjectPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("GetOwnedObjects"); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = types.MaxObjectsPerRequest
	}
	want, err := decoder.NormalizeStructType(structType)
	if err != nil {
		return nil, err
	}

	owner = ownerKey(owner)
	var matching []types.ObjectData
	for _, id := range c.owned[owner] {
		obj, ok := c.objects[id]
		if !ok || obj.Owner == nil || obj.Owner.AddressOwner != owner {
			continue
		}
		if got, err := decoder.NormalizeStructType(obj.Type); err != nil || got != want {
			continue
		}
		matching = append(matching, obj)
	}

	start, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	end := start + int(limit)
	if end > len(matching) {
		end = len(matching)
	}

	page := &types.ObjectPage{}
	for i := start; i < end; i++ {
		obj := matching[i]
		page.Data = append(page.Data, types.ObjectResponse{Data: &obj})
	}
	if end < len(matching) {
		next := strconv.Itoa(end)
		page.NextCursor = &next
		page.HasNextPage = true
	}
	return page, nil
}

func (c *Chain) QueryTransactionBlocks(_ context.Context, query types.TransactionQuery) (*types.TransactionBlockPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("QueryTransactionBlocks"); err != nil {
		return nil, err
	}
	f := query.MoveFunction
	blocks := append([]types.TransactionBlock(nil), c.history[f.Package+"::"+f.Module+"::"+f.Function]...)
	if query.Descending {
		for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
			blocks[i], blocks[j] = blocks[j], blocks[i]
		}
	}

	limit := int(query.Limit)
	if limit == 0 {
		limit = types.MaxObjectsPerRequest
	}
	start, err := parseCursor(query.Cursor)
	if err != nil {
		return nil, err
	}
	end := start + limit
	if end > len(blocks) {
		end = len(blocks)
	}

	page := &types.TransactionBlockPage{}
	if start < end {
		page.Data = blocks[start:end]
	}
	if end < len(blocks) {
		next := strconv.Itoa(end)
		page.NextCursor = &next
		page.HasNextPage = true
	}
	return page, nil
}

func (c *Chain) GetBalance(_ context.Context, owner, coinType string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("GetBalance"); err != nil {
		return nil, err
	}
	if balance, ok := c.balances[ownerKey(owner)+"|"+coinType]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (c *Chain) GetCoins(_ context.Context, owner, coinType string) ([]types.Coin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("GetCoins"); err != nil {
		return nil, err
	}
	return append([]types.Coin(nil), c.coins[ownerKey(owner)+"|"+coinType]...), nil
}

func (c *Chain) SignerAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signer
}

func (c *Chain) EstimateGas(_ context.Context, tx *ptb.Transaction) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("EstimateGas"); err != nil {
		return 0, err
	}
	if c.signer == "" {
		return 0, commonErrors.ErrWalletNotConnected
	}
	if err := tx.Err(); err != nil {
		return 0, err
	}
	return c.GasEstimate, nil
}

func (c *Chain) SendTransaction(_ context.Context, tx *ptb.Transaction) (*types.TransactionResult, error) {
	c.mu.Lock()
	if err := c.enter("SendTransaction"); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.signer == "" {
		c.mu.Unlock()
		return nil, commonErrors.ErrWalletNotConnected
	}
	if err := tx.Err(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.sent = append(c.sent, tx)
	n := len(c.sent)
	send := c.SendFunc
	sender := c.signer
	c.mu.Unlock()

	if send != nil {
		return send(tx)
	}
	return &types.TransactionResult{
		Digest:  "digest" + strconv.Itoa(n),
		Sender:  sender,
		Status:  types.TxDone,
		GasUsed: c.GasEstimate,
	}, nil
}

func (c *Chain) WaitTransactionConfirmation(_ context.Context, _ string) (types.TransactionStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("WaitTransactionConfirmation"); err != nil {
		return types.TxNeedsRetry, err
	}
	return types.TxDone, nil
}

func (c *Chain) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy && !c.closed
}

func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Chain) GetConfig() *types.ChainConfig {
	return c.config
}

func parseCursor(cursor *string) (int, error) {
	if cursor == nil || *cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(*cursor)
	if err != nil || n < 0 {
		return 0, errors.Errorf("invalid cursor %q", *cursor)
	}
	return n, nil
}

// ownerKey normalizes valid addresses so short and long forms name the same account.
func ownerKey(owner string) string {
	if normalized, err := ptb.NormalizeAddress(owner); err == nil {
		return normalized
	}
	return owner
}
