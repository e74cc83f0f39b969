package sui

import (
	"context"
	"encoding/base64"

	"github.com/ClipFinance/quest-lib/chains/sui/utils"
	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SendTransaction resolves, signs and executes a programmable transaction.
// The gas budget comes from the chain configuration, or from a dry run when it is not set.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the programmable transaction.
//
// Returns:
// - *types.TransactionResult: the executed transaction; set together with the error when the
//   transaction executed but aborted.
// - error: an error if preparation, signing or execution fails.
func (s *sui) SendTransaction(ctx context.Context, tx *ptb.Transaction) (*types.TransactionResult, error) {
	signer, err := s.getSigner()
	if err != nil {
		return nil, err
	}
	sender := signer.Address()

	in, err := s.prepareInputs(ctx, tx, sender)
	if err != nil {
		return nil, err
	}

	budget := s.config.GasBudget
	if budget == 0 {
		if budget, err = s.estimateWithInputs(ctx, tx, in); err != nil {
			return nil, err
		}
	}

	if budget > ^uint64(0)-in.gasDraw {
		return nil, errors.Wrap(commonErrors.ErrInvalidAmount, "gas budget and gas coin splits overflow")
	}
	payment, err := s.selectGasPayment(ctx, sender, budget+in.gasDraw, in.exclude)
	if err != nil {
		return nil, err
	}

	txBytes, err := s.build(tx, in, payment, budget)
	if err != nil {
		return nil, err
	}

	signature, err := signer.SignTransaction(txBytes)
	if err != nil {
		return nil, err
	}

	block, err := s.executeTransaction(ctx, txBytes, signature)
	if err != nil {
		return nil, err
	}

	if block.Effects == nil {
		if _, err := s.WaitTransactionConfirmation(ctx, block.Digest); err != nil {
			return nil, err
		}
		if block, err = s.getTransactionBlock(ctx, block.Digest); err != nil {
			return nil, err
		}
	}

	result := toTransactionResult(block, sender)
	s.logger.WithFields(logrus.Fields{
		"network": s.config.Network,
		"digest":  result.Digest,
		"status":  result.Status,
		"gasUsed": utils.MistToSui(result.GasUsed),
	}).Info("Transaction executed")

	if result.Status != types.TxDone {
		return result, errors.Wrapf(commonErrors.ErrTransactionFailed, "%s: %s", result.Digest, result.Error)
	}
	return result, nil
}

// executeTransaction submits signed transaction bytes and waits for local execution.
func (s *sui) executeTransaction(ctx context.Context, txBytes []byte, signature string) (*types.TransactionBlock, error) {
	options := utils.TransactionBlockResponseOptions{ShowEffects: true, ShowObjectChanges: true}

	var block types.TransactionBlock
	err := s.call(ctx, &block, "sui_executeTransactionBlock",
		base64.StdEncoding.EncodeToString(txBytes),
		[]string{signature},
		options,
		utils.WaitForLocalExecution,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute transaction")
	}
	if block.Digest == "" {
		return nil, errors.New("node returned no transaction digest")
	}
	return &block, nil
}

// toTransactionResult converts an executed transaction block.
func toTransactionResult(block *types.TransactionBlock, sender string) *types.TransactionResult {
	result := &types.TransactionResult{
		Digest: block.Digest,
		Sender: sender,
		Status: types.TxNeedsRetry,
	}

	if block.Effects != nil {
		result.GasUsed = block.Effects.GasUsed.TotalGas()
		if block.Effects.Status.Status == types.ExecutionSuccess {
			result.Status = types.TxDone
		} else {
			result.Status = types.TxFailed
			result.Error = block.Effects.Status.Error
		}
	}

	for _, change := range block.ObjectChanges {
		if change.Type == types.ObjectChangeCreated {
			result.CreatedObjects = append(result.CreatedObjects, change.ObjectID)
		}
	}

	return result
}
