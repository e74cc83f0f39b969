package sui

import (
	"context"
	"math/big"
	"sort"

	"github.com/ClipFinance/quest-lib/chains/sui/utils"
	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
)

// MaxGasPaymentObjects is the protocol limit on coins in a gas payment.
const MaxGasPaymentObjects = 256

// GetBalance gets the total balance of a coin type for the given address.
//
// Parameters:
// - ctx: the context for managing the request.
// - owner: the address to check balance for.
// - coinType: the coin type, e.g. 0x2::sui::SUI.
//
// Returns:
// - *big.Int: the balance in raw units.
// - error: an error if the balance check fails.
func (s *sui) GetBalance(ctx context.Context, owner, coinType string) (*big.Int, error) {
	var balance utils.Balance
	if err := s.call(ctx, &balance, "suix_getBalance", owner, coinType); err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	total, ok := new(big.Int).SetString(balance.TotalBalance, 10)
	if !ok {
		return nil, errors.Errorf("invalid total balance %q", balance.TotalBalance)
	}
	return total, nil
}

// GetCoins returns every coin object of a coin type owned by an address, following all pages.
//
// Parameters:
// - ctx: the context for managing the request.
// - owner: the owner address.
// - coinType: the coin type.
//
// Returns:
// - []types.Coin: the coins.
// - error: an error if a page request fails.
func (s *sui) GetCoins(ctx context.Context, owner, coinType string) ([]types.Coin, error) {
	var coins []types.Coin
	var cursor *string

	for {
		var page types.CoinPage
		if err := s.call(ctx, &page, "suix_getCoins", owner, coinType, cursor, pageLimit); err != nil {
			return nil, errors.Wrap(err, "failed to get coins")
		}
		coins = append(coins, page.Data...)

		if !page.HasNextPage || page.NextCursor == nil {
			return coins, nil
		}
		cursor = page.NextCursor
	}
}

// getReferenceGasPrice returns the reference gas price of the current epoch.
func (s *sui) getReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price types.Uint64String
	if err := s.call(ctx, &price, "suix_getReferenceGasPrice"); err != nil {
		return 0, errors.Wrap(err, "failed to get reference gas price")
	}
	return uint64(price), nil
}

// selectGasPayment picks the owner's SUI coins, largest first, until they cover need: the gas budget
// plus the amount the transaction splits off the gas coin. Coins used as transaction inputs are
// skipped.
//
// Parameters:
// - ctx: the context for managing the request.
// - owner: the gas owner.
// - need: the gas budget plus the gas coin splits.
// - exclude: object ids that must not be used for gas.
//
// Returns:
// - []types.Coin: the selected coins.
// - error: ErrInsufficientBalance if the usable coins together do not cover need.
func (s *sui) selectGasPayment(ctx context.Context, owner string, need uint64, exclude map[string]bool) ([]types.Coin, error) {
	coins, err := s.GetCoins(ctx, owner, types.SuiCoinType)
	if err != nil {
		return nil, err
	}
	return pickGasCoins(coins, need, exclude)
}

// gasCandidates returns the coins usable for gas, largest first, and their total balance.
func gasCandidates(coins []types.Coin, exclude map[string]bool) ([]types.Coin, uint64) {
	candidates := make([]types.Coin, 0, len(coins))
	var total uint64
	for _, coin := range coins {
		if exclude[coin.CoinObjectID] {
			continue
		}
		candidates = append(candidates, coin)
		total += uint64(coin.Balance)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Balance > candidates[j].Balance
	})
	return candidates, total
}

// pickGasCoins selects the largest coins until need is covered, at most MaxGasPaymentObjects of them.
// The selected coins are merged into the gas coin before the commands run.
func pickGasCoins(coins []types.Coin, need uint64, exclude map[string]bool) ([]types.Coin, error) {
	candidates, total := gasCandidates(coins, exclude)

	var selected []types.Coin
	var sum uint64
	for _, coin := range candidates {
		if len(selected) == MaxGasPaymentObjects {
			return nil, errors.Wrapf(commonErrors.ErrInsufficientBalance,
				"the %d largest gas coins hold %d MIST, %d needed", MaxGasPaymentObjects, sum, need)
		}
		selected = append(selected, coin)
		sum += uint64(coin.Balance)
		if sum >= need {
			return selected, nil
		}
	}

	return nil, errors.Wrapf(commonErrors.ErrInsufficientBalance, "gas coins hold %d MIST, %d needed", total, need)
}
