package sui

import (
	"context"
	"encoding/base64"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// dryRunBudget is the provisional budget of a dry run, capped by the gas coins balance.
	dryRunBudget = uint64(500_000_000)
	// gasSafeOverhead is the number of gas units added on top of the computation cost.
	gasSafeOverhead = uint64(1000)
)

// txInputs holds everything a transaction needs besides gas payment and budget.
type txInputs struct {
	sender   string
	objects  map[string]ptb.ObjectArg
	exclude  map[string]bool
	gasPrice uint64
	// gasDraw is the amount the commands split off the gas coin.
	gasDraw uint64
}

// prepareInputs resolves object inputs and fetches the reference gas price.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the programmable transaction.
// - sender: the signing address.
//
// Returns:
// - *txInputs: the resolved inputs.
// - error: an error if the transaction is invalid or resolution fails.
func (s *sui) prepareInputs(ctx context.Context, tx *ptb.Transaction, sender string) (*txInputs, error) {
	if err := tx.Err(); err != nil {
		return nil, errors.Wrap(err, "invalid transaction")
	}

	ids := tx.ObjectIDs()
	objects, err := s.resolveObjects(ctx, ids)
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]bool, len(ids))
	for _, id := range ids {
		exclude[id] = true
	}

	gasDraw, err := tx.GasDraw()
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction")
	}

	gasPrice, err := s.getReferenceGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	return &txInputs{
		sender:   sender,
		objects:  objects,
		exclude:  exclude,
		gasPrice: gasPrice,
		gasDraw:  gasDraw,
	}, nil
}

// build encodes the transaction with the given gas payment and budget.
func (s *sui) build(tx *ptb.Transaction, in *txInputs, payment []types.Coin, budget uint64) ([]byte, error) {
	refs := make([]ptb.ObjectRef, 0, len(payment))
	for _, coin := range payment {
		refs = append(refs, ptb.ObjectRef{
			ObjectID: coin.CoinObjectID,
			Version:  uint64(coin.Version),
			Digest:   coin.Digest,
		})
	}

	txBytes, err := tx.Build(ptb.BuildParams{
		Sender:     in.sender,
		GasPayment: refs,
		GasPrice:   in.gasPrice,
		GasBudget:  budget,
		Objects:    in.objects,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transaction")
	}
	return txBytes, nil
}

// EstimateGas dry-runs a transaction and returns a gas budget for it.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the programmable transaction to estimate.
//
// Returns:
// - uint64: the gas budget in MIST.
// - error: an error if the signer is missing, the dry run fails or the transaction would abort.
func (s *sui) EstimateGas(ctx context.Context, tx *ptb.Transaction) (uint64, error) {
	signer, err := s.getSigner()
	if err != nil {
		return 0, err
	}

	in, err := s.prepareInputs(ctx, tx, signer.Address())
	if err != nil {
		return 0, err
	}
	return s.estimateWithInputs(ctx, tx, in)
}

// estimateWithInputs dry-runs tx with a provisional budget and derives the final budget from the
// reported gas usage.
func (s *sui) estimateWithInputs(ctx context.Context, tx *ptb.Transaction, in *txInputs) (uint64, error) {
	coins, err := s.GetCoins(ctx, in.sender, types.SuiCoinType)
	if err != nil {
		return 0, err
	}

	_, available := gasCandidates(coins, in.exclude)
	if available <= in.gasDraw {
		return 0, errors.Wrapf(commonErrors.ErrInsufficientBalance, "gas coins hold %d MIST, the transaction spends %d", available, in.gasDraw)
	}
	provisional := dryRunBudget
	if available-in.gasDraw < provisional {
		provisional = available - in.gasDraw
	}

	payment, err := pickGasCoins(coins, provisional+in.gasDraw, in.exclude)
	if err != nil {
		return 0, err
	}

	txBytes, err := s.build(tx, in, payment, provisional)
	if err != nil {
		return 0, err
	}

	var result types.DryRunResult
	if err := s.call(ctx, &result, "sui_dryRunTransactionBlock", base64.StdEncoding.EncodeToString(txBytes)); err != nil {
		return 0, errors.Wrap(err, "dry run failed")
	}
	if result.Effects.Status.Status != types.ExecutionSuccess {
		return 0, errors.Wrapf(commonErrors.ErrTransactionFailed, "dry run: %s", result.Effects.Status.Error)
	}

	budget := gasBudget(result.Effects.GasUsed, in.gasPrice)
	s.logger.WithFields(logrus.Fields{
		"network":  s.config.Network,
		"gasPrice": in.gasPrice,
		"budget":   budget,
	}).Debug("Estimated gas budget")

	return budget, nil
}

// gasBudget adds the safe overhead to the computation cost and accounts for net storage.
// The budget never drops below computation cost plus overhead.
func gasBudget(used types.GasCostSummary, gasPrice uint64) uint64 {
	base := uint64(used.ComputationCost) + gasSafeOverhead*gasPrice
	storage := uint64(used.StorageCost)
	rebate := uint64(used.StorageRebate)

	if storage > rebate {
		return base + storage - rebate
	}
	return base
}
