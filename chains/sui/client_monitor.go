package sui

import (
	"context"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/connectionmonitor"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// suiConnectionManager implements the NodeClient interface and manages the connection to the full node.
type suiConnectionManager struct {
	chain *sui // Reference to the Sui chain instance.
}

// initMonitor initializes the connection monitor for the Sui chain.
//
// Parameters:
// - ctx: the context for managing the initialization process.
//
// Returns:
// - error: an error if there is an issue starting the connection monitor.
func (s *sui) initMonitor(ctx context.Context) error {
	s.monitorMutex.Lock()
	defer s.monitorMutex.Unlock()

	connectionManager := &suiConnectionManager{chain: s}
	s.monitor = connectionmonitor.NewConnectionMonitor(connectionManager, s.logger, s.config.Network)
	return s.monitor.Start(ctx)
}

// CheckConnection checks the connection to the full node by retrieving the latest checkpoint.
//
// Parameters:
// - ctx: the context for managing the connection check.
//
// Returns:
// - error: an error if the client is not initialized or if the checkpoint cannot be retrieved.
func (m *suiConnectionManager) CheckConnection(ctx context.Context) error {
	var checkpoint types.Uint64String
	return m.chain.call(ctx, &checkpoint, "sui_getLatestCheckpointSequenceNumber")
}

// Reconnect closes the current client and dials the full node again.
//
// Parameters:
// - ctx: the context for managing the reconnection process.
//
// Returns:
// - error: an error if there is an issue dialing the new client.
func (m *suiConnectionManager) Reconnect(ctx context.Context) error {
	m.chain.clientMutex.Lock()
	defer m.chain.clientMutex.Unlock()

	if m.chain.client != nil {
		m.chain.client.Close()
		m.chain.client = nil
	}

	client, err := rpc.DialContext(ctx, m.chain.config.RpcUrl)
	if err != nil {
		return errors.Wrap(err, "failed to dial full node")
	}

	m.chain.client = client
	return nil
}
