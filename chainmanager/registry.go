package chainmanager

import (
	"context"
	"sync"

	"github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/sirupsen/logrus"
)

// ChainCreator creates a chain from its configuration.
type ChainCreator interface {
	CreateChain(context.Context, *types.ChainConfig, *logrus.Logger) (types.Chain, error)
}

type blockchainRegistry struct {
	logger       *logrus.Logger
	chains       map[string]types.Chain
	chainsMutex  sync.RWMutex
	factory      ChainCreator
	factoryMutex sync.RWMutex
}

// NewChainRegistry creates a registry of chains keyed by network.
//
// Parameters:
// - factory: the factory creating chains from configuration.
// - logger: the logger passed to created chains.
//
// Returns:
// - types.ChainRegistry: the registry.
func NewChainRegistry(factory ChainCreator, logger *logrus.Logger) types.ChainRegistry {
	return &blockchainRegistry{
		chains:  make(map[string]types.Chain),
		factory: factory,
		logger:  logger,
	}
}

func (r *blockchainRegistry) Add(ctx context.Context, config *types.ChainConfig) error {
	if config == nil || config.Network == "" {
		return errors.ErrInvalidNetwork
	}

	// Lock factory for reading to prevent changes during chain creation.
	r.factoryMutex.RLock()
	factory := r.factory
	r.factoryMutex.RUnlock()

	if factory == nil {
		return errors.ErrFactoryNotProvided
	}

	chain, err := factory.CreateChain(ctx, config, r.logger)
	if err != nil {
		return err
	}

	// Lock chains map for writing; a replaced chain is closed.
	r.chainsMutex.Lock()
	previous := r.chains[config.Network]
	r.chains[config.Network] = chain
	r.chainsMutex.Unlock()

	if previous != nil {
		previous.Close()
	}

	r.logger.WithFields(logrus.Fields{
		"network": config.Network,
		"rpc":     config.RpcUrl,
	}).Info("Chain registered")

	return nil
}

func (r *blockchainRegistry) Get(network string) types.Chain {
	r.chainsMutex.RLock()
	chain := r.chains[network]
	r.chainsMutex.RUnlock()
	return chain
}

func (r *blockchainRegistry) Remove(network string) {
	r.chainsMutex.Lock()
	chain := r.chains[network]
	delete(r.chains, network)
	r.chainsMutex.Unlock()

	if chain != nil {
		chain.Close()
	}
}
