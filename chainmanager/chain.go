package chainmanager

import (
	"context"
	"github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"math/big"
	"sync"
)

// ErrNotImplemented is returned when the chain was built without the requested component.
var ErrNotImplemented = errors.ErrNotImplemented

// Chain implements types.Chain interface with thread-safe access to dependencies.
// It provides methods to interact with the chain's object reader, balance provider, gas estimator,
// transaction sender and transaction watcher.
// Each dependency is protected by a read-write mutex to ensure thread-safe access.
type Chain struct {
	config     *types.ChainConfig       // Chain configuration.
	reader     types.ObjectReader       // Object reader implementation.
	provider   types.BalanceProvider    // Balance provider implementation.
	estimator  types.GasEstimator       // Gas estimator implementation.
	sender     types.TransactionSender  // Transaction sender implementation.
	watcher    types.TransactionWatcher // Transaction watcher implementation.
	connection types.ConnectionState    // Connection state implementation.

	// Mutexes for thread-safe access to dependencies.
	readerMutex     sync.RWMutex // Mutex for object reader.
	providerMutex   sync.RWMutex // Mutex for balance provider.
	estimatorMutex  sync.RWMutex // Mutex for gas estimator.
	senderMutex     sync.RWMutex // Mutex for transaction sender.
	watcherMutex    sync.RWMutex // Mutex for transaction watcher.
	connectionMutex sync.RWMutex // Mutex for connection state.
}

// NewChain creates a new Chain instance.
//
// Parameters:
// - config: the chain configuration.
// - reader: the object reader implementation.
// - provider: the balance provider implementation.
// - estimator: the gas estimator implementation.
// - sender: the transaction sender implementation.
// - watcher: the transaction watcher implementation.
// - connection: the connection state implementation.
//
// Returns:
// - *Chain: a new Chain instance.
func NewChain(
	config *types.ChainConfig,
	reader types.ObjectReader,
	provider types.BalanceProvider,
	estimator types.GasEstimator,
	sender types.TransactionSender,
	watcher types.TransactionWatcher,
	connection types.ConnectionState,
) *Chain {
	return &Chain{
		config:     config,
		reader:     reader,
		provider:   provider,
		estimator:  estimator,
		sender:     sender,
		watcher:    watcher,
		connection: connection,
	}
}

// GetObject fetches a single object with thread-safe access.
//
// Parameters:
// - ctx: the context for managing the request.
// - id: the object id.
//
// Returns:
// - *types.ObjectResponse: the object response.
// - error: an error if the reader is not implemented or the request fails.
func (c *Chain) GetObject(ctx context.Context, id string) (*types.ObjectResponse, error) {
	reader := c.GetReader()
	if reader == nil {
		return nil, ErrNotImplemented
	}
	return reader.GetObject(ctx, id)
}

// MultiGetObjects fetches several objects with thread-safe access.
//
// Parameters:
// - ctx: the context for managing the request.
// - ids: the object ids.
//
// Returns:
// - []types.ObjectResponse: the object responses in request order.
// - error: an error if the reader is not implemented or the request fails.
func (c *Chain) MultiGetObjects(ctx context.Context, ids []string) ([]types.ObjectResponse, error) {
	reader := c.GetReader()
	if reader == nil {
		return nil, ErrNotImplemented
	}
	return reader.MultiGetObjects(ctx, ids)
}

// GetOwnedObjects lists a page of owned objects with thread-safe access.
//
// Parameters:
// - ctx: the context for managing the request.
// - owner: the owner address.
// - structType: the struct tag to filter on.
// - cursor: the cursor of the previous page.
// - limit: the page size.
//
// Returns:
// - *types.ObjectPage: the page of objects.
// - error: an error if the reader is not implemented or the request fails.
func (c *Chain) GetOwnedObjects(ctx context.Context, owner, structType string, cursor *string, limit uint) (*types.ObjectPage, error) {
	reader := c.GetReader()
	if reader == nil {
		return nil, ErrNotImplemented
	}
	return reader.GetOwnedObjects(ctx, owner, structType, cursor, limit)
}

// QueryTransactionBlocks queries the transaction history with thread-safe access.
//
// Parameters:
// - ctx: the context for managing the request.
// - query: the filter, page size and ordering.
//
// Returns:
// - *types.TransactionBlockPage: one page of transaction blocks.
// - error: an error if the reader is not implemented or the request fails.
func (c *Chain) QueryTransactionBlocks(ctx context.Context, query types.TransactionQuery) (*types.TransactionBlockPage, error) {
	reader := c.GetReader()
	if reader == nil {
		return nil, ErrNotImplemented
	}
	return reader.QueryTransactionBlocks(ctx, query)
}

// GetBalance returns the balance of a coin type with thread-safe access.
func (c *Chain) GetBalance(ctx context.Context, owner, coinType string) (*big.Int, error) {
	c.providerMutex.RLock()
	provider := c.provider
	c.providerMutex.RUnlock()

	if provider == nil {
		return nil, ErrNotImplemented
	}

	return provider.GetBalance(ctx, owner, coinType)
}

// GetCoins returns the coins of a coin type with thread-safe access.
func (c *Chain) GetCoins(ctx context.Context, owner, coinType string) ([]types.Coin, error) {
	c.providerMutex.RLock()
	provider := c.provider
	c.providerMutex.RUnlock()

	if provider == nil {
		return nil, ErrNotImplemented
	}

	return provider.GetCoins(ctx, owner, coinType)
}

func (c *Chain) SignerAddress() string {
	c.providerMutex.RLock()
	provider := c.provider
	c.providerMutex.RUnlock()

	if provider == nil {
		return ""
	}

	return provider.SignerAddress()
}

// EstimateGas estimates the gas budget of a transaction with thread-safe access.
// It locks the estimator mutex for reading to ensure safe concurrent access to the estimator.
// If the estimator is not implemented, it returns an error.
//
// Parameters:
// - ctx: context for managing the lifecycle of the gas estimation.
// - tx: the programmable transaction.
//
// Returns:
// - uint64: the gas budget in MIST.
// - error: an error if the estimator is not implemented or if any issue occurs during estimation.
func (c *Chain) EstimateGas(ctx context.Context, tx *ptb.Transaction) (uint64, error) {
	c.estimatorMutex.RLock()
	defer c.estimatorMutex.RUnlock()

	if c.estimator == nil {
		return 0, ErrNotImplemented
	}
	return c.estimator.EstimateGas(ctx, tx)
}

// SendTransaction signs and executes a transaction with thread-safe access.
// It locks the sender mutex for reading to ensure safe concurrent access to the sender.
// If the sender is not implemented, it returns an error.
//
// Parameters:
// - ctx: context for managing the lifecycle of the submission.
// - tx: the programmable transaction.
//
// Returns:
// - *types.TransactionResult: the executed transaction.
// - error: an error if the sender is not implemented or if any issue occurs during sending.
func (c *Chain) SendTransaction(ctx context.Context, tx *ptb.Transaction) (*types.TransactionResult, error) {
	c.senderMutex.RLock()
	defer c.senderMutex.RUnlock()

	if c.sender == nil {
		return nil, ErrNotImplemented
	}
	return c.sender.SendTransaction(ctx, tx)
}

// WaitTransactionConfirmation waits for transaction confirmation with thread-safe access.
// It locks the watcher mutex for reading to ensure safe concurrent access to the watcher.
// If the watcher is not implemented, it returns an error.
//
// Parameters:
// - ctx: context for managing the lifecycle of the transaction confirmation.
// - digest: the transaction digest.
//
// Returns:
// - types.TransactionStatus: the final status of the transaction.
// - error: an error if the watcher is not implemented or if any issue occurs during confirmation.
func (c *Chain) WaitTransactionConfirmation(ctx context.Context, digest string) (types.TransactionStatus, error) {
	c.watcherMutex.RLock()
	defer c.watcherMutex.RUnlock()

	if c.watcher == nil {
		return types.TxFailed, ErrNotImplemented
	}
	return c.watcher.WaitTransactionConfirmation(ctx, digest)
}

// Healthy reports the last known connection state; a chain without connection state is never healthy.
func (c *Chain) Healthy() bool {
	c.connectionMutex.RLock()
	defer c.connectionMutex.RUnlock()

	return c.connection != nil && c.connection.Healthy()
}

// Close releases the underlying connection.
func (c *Chain) Close() {
	c.connectionMutex.Lock()
	defer c.connectionMutex.Unlock()

	if c.connection != nil {
		c.connection.Close()
		c.connection = nil
	}
}

// GetConfig returns chain configuration.
//
// Returns:
// - *types.ChainConfig: the chain configuration instance.
func (c *Chain) GetConfig() *types.ChainConfig {
	return c.config
}

// Helper methods with thread-safe access to dependencies

// GetReader returns the object reader with thread-safe access.
//
// Returns:
// - types.ObjectReader: the object reader instance.
func (c *Chain) GetReader() types.ObjectReader {
	c.readerMutex.RLock()
	defer c.readerMutex.RUnlock()
	return c.reader
}

// GetEstimator returns the gas estimator with thread-safe access.
// It locks the estimator mutex for reading to ensure safe concurrent access to the estimator.
//
// Returns:
// - types.GasEstimator: the gas estimator instance.
func (c *Chain) GetEstimator() types.GasEstimator {
	c.estimatorMutex.RLock()
	defer c.estimatorMutex.RUnlock()
	return c.estimator
}

// GetSender returns the transaction sender with thread-safe access.
// It locks the sender mutex for reading to ensure safe concurrent access to the sender.
//
// Returns:
// - types.TransactionSender: the transaction sender instance.
func (c *Chain) GetSender() types.TransactionSender {
	c.senderMutex.RLock()
	defer c.senderMutex.RUnlock()
	return c.sender
}

// GetWatcher returns the transaction watcher with thread-safe access.
// It locks the watcher mutex for reading to ensure safe concurrent access to the watcher.
//
// Returns:
// - types.TransactionWatcher: the transaction watcher instance.
func (c *Chain) GetWatcher() types.TransactionWatcher {
	c.watcherMutex.RLock()
	defer c.watcherMutex.RUnlock()
	return c.watcher
}
