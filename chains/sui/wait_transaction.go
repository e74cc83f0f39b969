package sui

import (
	"context"
	"time"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// WaitTransactionConfirmation polls the node until it serves the transaction with its effects.
//
// Parameters:
// - ctx: the context for managing the request.
// - digest: the transaction digest.
//
// Returns:
// - types.TransactionStatus: TxDone or TxFailed once effects are known, TxNeedsRetry on timeout.
// - error: an error if the wait times out or the context is done.
func (s *sui) WaitTransactionConfirmation(ctx context.Context, digest string) (types.TransactionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		block, err := s.getTransactionBlock(ctx, digest)
		switch {
		case err != nil:
			s.logger.WithFields(logrus.Fields{
				"digest": digest,
				"error":  err,
			}).Debug("Transaction not available yet")
		case block.Effects != nil:
			if block.Effects.Status.Status == types.ExecutionSuccess {
				return types.TxDone, nil
			}
			return types.TxFailed, nil
		}

		select {
		case <-ctx.Done():
			s.logger.WithField("digest", digest).Error("WaitTransactionConfirmation: context done")
			return types.TxNeedsRetry, errors.Wrapf(ctx.Err(), "transaction %s not confirmed", digest)
		case <-ticker.C:
		}
	}
}
