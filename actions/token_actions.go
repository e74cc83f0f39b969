package actions

import (
	"context"
	"math/bits"

	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/ptb"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/decoder"
	"github.com/ClipFinance/quest-lib/querycache"
	"github.com/pkg/errors"
)

// BuyTokenInput holds the SUI amount paid for tokens, in display units.
type BuyTokenInput struct {
	AmountSui float64 `json:"amountSui"`
}

// TokenAmount returns the raw token amount bought with paid raw base units at rate.
func TokenAmount(paid, rate uint64) (uint64, error) {
	hi, lo := bits.Mul64(paid, rate)
	if hi != 0 {
		return 0, errors.Wrapf(commonErrors.ErrInvalidAmount, "%d at rate %d overflows", paid, rate)
	}
	return lo, nil
}

// BuyToken swaps SUI split from the gas coin for tokens at the configured rate.
//
// Parameters:
// - ctx: the context for managing the requests.
// - in: the paid amount.
// - opts: the caller callbacks.
//
// Returns:
// - *types.TransactionResult: the executed transaction.
// - error: ErrWalletNotConnected, ErrInvalidAmount or ErrSubmissionFailed.
func (b *Builder) BuyToken(ctx context.Context, in BuyTokenInput, opts Options) (*types.TransactionResult, error) {
	return b.run(ctx, action{
		name:           types.FnBuyToken,
		successMessage: "Successfully swapped SUI for RUN!",
		failureMessage: "Failed to buy RUN.",
		affected:       []querycache.Group{querycache.GroupBalance},
		compose: func(_ context.Context, tx *ptb.Transaction, _ string) error {
			paid, err := decoder.ToRaw(in.AmountSui)
			if err != nil {
				return err
			}
			if paid == 0 {
				return errors.Wrap(commonErrors.ErrInvalidAmount, "amount must be positive")
			}
			amount, err := TokenAmount(paid, b.deployment.TokenRate)
			if err != nil {
				return err
			}

			payment := tx.SplitCoins(tx.Gas(), tx.PureU64(paid))[0]
			tx.MoveCall(b.deployment.TokenTarget(types.FnBuyToken),
				tx.Object(b.deployment.TokenVaultID),
				tx.Object(b.deployment.TokenPriceID),
				tx.PureU64(amount),
				payment,
				tx.Object(b.deployment.TokenStateID),
			)
			return nil
		},
	}, opts)
}

// VerifyExchangeRate compares the configured rate with the rate stored in the price object.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - uint64: the on-chain rate.
// - error: ErrRateMismatch when the rates differ, ErrUndecodable when the price object has no rate.
func (b *Builder) VerifyExchangeRate(ctx context.Context) (uint64, error) {
	obj, err := b.chain.GetObject(ctx, b.deployment.TokenPriceID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read price object")
	}
	if obj.Data == nil || obj.Data.Content == nil {
		return 0, errors.Wrapf(commonErrors.ErrUndecodable, "price object %s has no content", b.deployment.TokenPriceID)
	}

	field := b.deployment.PriceRateField
	if field == "" {
		field = types.DefaultPriceRateField
	}
	rate, ok := decoder.Uint64(obj.Data.Content.Fields[field])
	if !ok {
		return 0, errors.Wrapf(commonErrors.ErrUndecodable, "price object %s has no %s", b.deployment.TokenPriceID, field)
	}
	if rate != b.deployment.TokenRate {
		return rate, errors.Wrapf(commonErrors.ErrRateMismatch, "configured %d, on chain %d", b.deployment.TokenRate, rate)
	}
	return rate, nil
}
