package types

import (
	"context"
	"math/big"

	"github.com/ClipFinance/quest-lib/common/ptb"
)

// ChainConfig holds the configuration for a specific chain implementation.
//
// Fields:
// - Name: the human readable name of the network.
// - ChainType: the type of the chain.
// - Network: the network identifier (e.g. "testnet"), used as registry key.
// - RpcUrl: the URL for the full node JSON-RPC endpoint.
// - PrivateKey: the key of the signing account, empty for a read-only chain.
// - GasBudget: fixed gas budget in MIST, zero to estimate through a dry run.
// - Deployment: the contract deployment the chain talks to.
type ChainConfig struct {
	Name       string
	ChainType  ChainType
	Network    string
	RpcUrl     string
	PrivateKey string
	GasBudget  uint64
	Deployment *Deployment
}

// ObjectReader provides object and transaction history queries.
type ObjectReader interface {
	// GetObject fetches a single object with its owner and content.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - id: the object id.
	//
	// Returns:
	// - *ObjectResponse: the object response as returned by the node.
	// - error: an error if the request fails.
	GetObject(ctx context.Context, id string) (*ObjectResponse, error)

	// MultiGetObjects fetches several objects by id in one round-trip.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - ids: the object ids, at most MaxObjectsPerRequest.
	//
	// Returns:
	// - []ObjectResponse: one response per id, in request order.
	// - error: an error if the request fails.
	MultiGetObjects(ctx context.Context, ids []string) ([]ObjectResponse, error)

	// GetOwnedObjects lists one page of objects owned by an address and matching a struct tag.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - owner: the owner address.
	// - structType: the fully qualified struct tag to filter on.
	// - cursor: the cursor returned by a previous page, nil for the first page.
	// - limit: the page size.
	//
	// Returns:
	// - *ObjectPage: the page of objects.
	// - error: an error if the request fails.
	GetOwnedObjects(ctx context.Context, owner, structType string, cursor *string, limit uint) (*ObjectPage, error)

	// QueryTransactionBlocks queries the transaction history.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - query: the filter, page size and ordering.
	//
	// Returns:
	// - *TransactionBlockPage: one page of transaction blocks.
	// - error: an error if the request fails.
	QueryTransactionBlocks(ctx context.Context, query TransactionQuery) (*TransactionBlockPage, error)
}

// BalanceProvider provides balance and coin queries.
type BalanceProvider interface {
	// GetBalance returns the total balance of a coin type owned by an address, in raw units.
	GetBalance(ctx context.Context, owner, coinType string) (*big.Int, error)

	// GetCoins returns every coin object of a coin type owned by an address.
	GetCoins(ctx context.Context, owner, coinType string) ([]Coin, error)

	// SignerAddress returns the address of the configured signer, empty when the chain is read-only.
	SignerAddress() string
}

// GasEstimator provides gas estimation functionality.
type GasEstimator interface {
	// EstimateGas dry-runs a transaction and returns a gas budget for it.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - tx: the programmable transaction to estimate.
	//
	// Returns:
	// - uint64: the gas budget in MIST.
	// - error: an error if the dry run fails or the transaction would abort.
	EstimateGas(ctx context.Context, tx *ptb.Transaction) (uint64, error)
}

// TransactionSender provides transaction submission functionality.
type TransactionSender interface {
	// SendTransaction resolves, signs and executes a programmable transaction.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - tx: the programmable transaction.
	//
	// Returns:
	// - *TransactionResult: the executed transaction.
	// - error: an error if building, signing or execution fails.
	SendTransaction(ctx context.Context, tx *ptb.Transaction) (*TransactionResult, error)
}

// TransactionWatcher provides transaction confirmation functionality.
type TransactionWatcher interface {
	// WaitTransactionConfirmation waits until the node serves the transaction.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - digest: the transaction digest.
	//
	// Returns:
	// - TransactionStatus: the final status of the transaction.
	// - error: an error if the confirmation fails.
	WaitTransactionConfirmation(ctx context.Context, digest string) (TransactionStatus, error)
}

// Chain combines all chain-specific functionality.
type Chain interface {
	ObjectReader
	BalanceProvider
	GasEstimator
	TransactionSender
	TransactionWatcher

	ConnectionState

	// GetConfig returns the chain configuration.
	GetConfig() *ChainConfig
}

// ConnectionState reports and releases the node connection.
type ConnectionState interface {
	// Healthy reports the result of the last connection check.
	Healthy() bool
	// Close releases the client and stops background monitoring.
	Close()
}

// ChainRegistry manages chains per network.
type ChainRegistry interface {
	// Add creates a chain from config and registers it under config.Network.
	//
	// Parameters:
	// - ctx: the context for managing the chain creation.
	// - config: the configuration for the chain to add.
	//
	// Returns:
	// - error: an error if adding the chain fails.
	Add(ctx context.Context, config *ChainConfig) error

	// Get retrieves a chain from the registry by its network.
	Get(network string) Chain

	// Remove closes and removes a chain from the registry.
	Remove(network string)
}
