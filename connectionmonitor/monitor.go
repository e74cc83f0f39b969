package connectionmonitor

import (
	"context"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// healthCheckInterval defines interval between connection health checks
	healthCheckInterval = 30 * time.Second
	// reconnectTimeout defines timeout for reconnection attempts
	reconnectTimeout = 5 * time.Second
	// maxReconnectAttempts defines maximum number of reconnection attempts
	maxReconnectAttempts = 3
)

// ConnectionMonitor represents connection state monitoring interface
type ConnectionMonitor interface {
	// Start runs a first check and starts connection monitoring
	Start(ctx context.Context) error
	// Stop stops connection monitoring
	Stop()
	// Healthy reports whether the last check or reconnect succeeded
	Healthy() bool
}

// NodeClient represents the node client interface
type NodeClient interface {
	// CheckConnection checks if connection is alive
	CheckConnection(ctx context.Context) error
	// Reconnect attempts to reconnect to the node
	Reconnect(ctx context.Context) error
}

// Options tunes the monitor timings; zero values fall back to the defaults.
type Options struct {
	CheckInterval    time.Duration
	ReconnectBackoff time.Duration
	MaxAttempts      int
}

type connectionMonitor struct {
	client       NodeClient
	logger       *logrus.Logger
	network      string
	options      Options
	healthy      atomic.Bool
	stopChan     chan struct{}
	isMonitoring bool
	monitorMutex sync.RWMutex
}

// NewConnectionMonitor creates a new connection monitor instance.
//
// Parameters:
// - client: the node client to monitor.
// - logger: the logger for logging purposes.
// - network: the network name used in log fields.
// - options: optional timings.
//
// Returns:
// - ConnectionMonitor: the new connection monitor instance.
func NewConnectionMonitor(
	client NodeClient,
	logger *logrus.Logger,
	network string,
	options ...Options,
) ConnectionMonitor {
	opts := Options{}
	if len(options) > 0 {
		opts = options[0]
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = healthCheckInterval
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = reconnectTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = maxReconnectAttempts
	}

	return &connectionMonitor{
		client:       client,
		logger:       logger,
		network:      network,
		options:      opts,
		stopChan:     make(chan struct{}),
		isMonitoring: false,
	}
}

// Start starts connection monitoring.
//
// The first check runs synchronously so Healthy reflects the node state once Start returns.
// A failed first check is logged, not returned.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - error: an error if the connection monitor is already running.
func (m *connectionMonitor) Start(ctx context.Context) error {
	m.monitorMutex.Lock()
	if m.isMonitoring {
		m.monitorMutex.Unlock()
		return errors.Errorf("connection monitor is already running for network %s", m.network)
	}
	m.isMonitoring = true
	m.monitorMutex.Unlock()

	if err := m.client.CheckConnection(ctx); err != nil {
		m.logger.WithFields(logrus.Fields{
			"network": m.network,
			"error":   err,
		}).Warn("Initial connection check failed")
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
	}

	go m.monitorConnection(ctx)
	return nil
}

// Stop stops connection monitoring.
func (m *connectionMonitor) Stop() {
	m.monitorMutex.Lock()
	defer m.monitorMutex.Unlock()

	if !m.isMonitoring {
		return
	}

	close(m.stopChan)
	m.isMonitoring = false
}

// Healthy reports whether the last check or reconnect succeeded.
func (m *connectionMonitor) Healthy() bool {
	return m.healthy.Load()
}

// monitorConnection monitors the connection state and attempts to reconnect if needed.
//
// Parameters:
// - ctx: the context for managing the request.
func (m *connectionMonitor) monitorConnection(ctx context.Context) {
	ticker := time.NewTicker(m.options.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.WithField("network", m.network).Info("Connection monitoring stopped due to context cancellation")
			return

		case <-m.stopChan:
			m.logger.WithField("network", m.network).Info("Connection monitoring stopped")
			return

		case <-ticker.C:
			if err := m.checkAndReconnect(ctx); err != nil {
				m.logger.WithFields(logrus.Fields{
					"network": m.network,
					"error":   err,
				}).Error("Failed to check or reconnect")
			}
		}
	}
}

// checkAndReconnect checks the connection state and attempts to reconnect if needed.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - error: an error if the reconnection fails.
func (m *connectionMonitor) checkAndReconnect(ctx context.Context) error {
	err := m.client.CheckConnection(ctx)
	if err == nil {
		m.healthy.Store(true)
		m.logger.WithField("network", m.network).Debug("Ping successful")
		return nil
	}

	m.healthy.Store(false)
	m.logger.WithFields(logrus.Fields{
		"network": m.network,
		"error":   err,
	}).Warn("Connection check failed, attempting to reconnect")

	for attempt := 1; attempt <= m.options.MaxAttempts; attempt++ {
		err := m.client.Reconnect(ctx)
		if err == nil {
			err = m.client.CheckConnection(ctx)
		}
		if err == nil {
			m.healthy.Store(true)
			m.logger.WithFields(logrus.Fields{
				"network": m.network,
				"attempt": attempt,
			}).Info("Client successfully reconnected")
			return nil
		}

		m.logger.WithFields(logrus.Fields{
			"network": m.network,
			"attempt": attempt,
			"error":   err,
		}).Error("Reconnection attempt failed")

		if attempt == m.options.MaxAttempts {
			return errors.Wrapf(err, "failed to reconnect to network %s", m.network)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stopChan:
			return nil
		case <-time.After(m.options.ReconnectBackoff):
		}
	}

	return nil
}
