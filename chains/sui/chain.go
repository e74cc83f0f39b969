package sui

import (
	"context"
	"sync"
	"time"

	"github.com/ClipFinance/quest-lib/chainmanager"
	"github.com/ClipFinance/quest-lib/chains/sui/signer"
	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/connectionmonitor"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// waitTimeout is the timeout duration for waiting operations.
	waitTimeout = 30 * time.Second
	// pollInterval is the interval between transaction lookups while waiting.
	pollInterval = time.Second
	// pageLimit is the page size of coin and owned object listings.
	pageLimit = 50
)

// sui represents the Sui chain implementation.
type sui struct {
	config *types.ChainConfig // Chain configuration.
	logger *logrus.Logger     // Logger for logging events.

	// Protected fields with their own mutexes.
	clientMutex sync.RWMutex // Mutex for client.
	client      *rpc.Client  // JSON-RPC client of the full node.

	signerMutex sync.RWMutex  // Mutex for signer.
	signer      signer.Signer // Signer for signing transactions.

	monitorMutex sync.RWMutex                        // Mutex for connection monitor.
	monitor      connectionmonitor.ConnectionMonitor // Connection monitor.
}

// NewSuiChain creates a new Sui chain implementation.
//
// Parameters:
// - ctx: the context for managing the request.
// - config: the chain configuration.
// - logger: the logger for logging events.
//
// Returns:
// - types.Chain: a new Sui chain instance.
// - error: an error if any issue occurs during creation.
func NewSuiChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.Chain, error) {
	if config == nil || config.RpcUrl == "" {
		return nil, errors.Wrap(commonErrors.ErrInvalidConfig, "rpc url is empty")
	}

	client, err := rpc.DialContext(ctx, config.RpcUrl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}

	chain := &sui{
		config: config,
		logger: logger,
		client: client,
	}

	if config.PrivateKey != "" {
		signer, err := signer.NewSigner(config.PrivateKey)
		if err != nil {
			client.Close()
			return nil, errors.Wrap(err, "failed to create signer")
		}

		chain.signerMutex.Lock()
		chain.signer = signer
		chain.signerMutex.Unlock()
	}

	if err := chain.initMonitor(ctx); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to init connection monitor")
	}

	builder := chainmanager.NewChainBuilder(config)
	builder.WithObjectReader(chain)
	builder.WithBalanceProvider(chain)
	builder.WithGasEstimator(chain)
	builder.WithTransactionSender(chain)
	builder.WithTransactionWatcher(chain)
	builder.WithConnectionState(chain)

	return builder.Build(), nil
}

// Healthy reports the result of the last connection check.
func (s *sui) Healthy() bool {
	s.monitorMutex.RLock()
	defer s.monitorMutex.RUnlock()

	return s.monitor != nil && s.monitor.Healthy()
}

// Close should be called when the chain is no longer needed.
// It stops the connection monitor and closes the client.
func (s *sui) Close() {
	s.monitorMutex.Lock()
	if s.monitor != nil {
		s.monitor.Stop()
	}
	s.monitorMutex.Unlock()

	s.clientMutex.Lock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	s.clientMutex.Unlock()
}

// SignerAddress returns the address of the configured signer, empty when the chain is read-only.
func (s *sui) SignerAddress() string {
	s.signerMutex.RLock()
	defer s.signerMutex.RUnlock()

	if s.signer == nil {
		return ""
	}
	return s.signer.Address()
}

// getClient returns the current client.
func (s *sui) getClient() (*rpc.Client, error) {
	s.clientMutex.RLock()
	client := s.client
	s.clientMutex.RUnlock()

	if client == nil {
		return nil, commonErrors.ErrClientNotReady
	}
	return client, nil
}

// getSigner returns the signer, or ErrWalletNotConnected for a read-only chain.
func (s *sui) getSigner() (signer.Signer, error) {
	s.signerMutex.RLock()
	signer := s.signer
	s.signerMutex.RUnlock()

	if signer == nil {
		return nil, commonErrors.ErrWalletNotConnected
	}
	return signer, nil
}

// call performs a JSON-RPC call with the current client.
func (s *sui) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	if err := client.CallContext(ctx, result, method, args...); err != nil {
		return errors.Wrapf(err, "%s failed", method)
	}
	return nil
}
