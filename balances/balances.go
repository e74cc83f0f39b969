// Package balances reads the base currency and token balances of an account.
package balances

import (
	"context"
	"math/big"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/decoder"
	"github.com/pkg/errors"
)

// Loader reads balance snapshots.
type Loader struct {
	provider   types.BalanceProvider
	deployment *types.Deployment
}

// NewLoader creates a balance loader.
func NewLoader(provider types.BalanceProvider, deployment *types.Deployment) *Loader {
	return &Loader{provider: provider, deployment: deployment}
}

// Load returns the SUI and token balances of address in display units.
//
// Parameters:
// - ctx: the context for managing the requests.
// - address: the account; empty returns the zero snapshot.
//
// Returns:
// - types.BalanceSnapshot: the balances.
// - error: a transport error.
func (l *Loader) Load(ctx context.Context, address string) (types.BalanceSnapshot, error) {
	snapshot := types.EmptyBalanceSnapshot(address)
	if address == "" {
		return snapshot, nil
	}

	base, err := l.provider.GetBalance(ctx, address, types.SuiCoinType)
	if err != nil {
		return types.BalanceSnapshot{}, errors.Wrap(err, "failed to get SUI balance")
	}
	token, err := l.provider.GetBalance(ctx, address, l.deployment.TokenCoinType())
	if err != nil {
		return types.BalanceSnapshot{}, errors.Wrap(err, "failed to get token balance")
	}

	snapshot.BaseRaw = orZero(base)
	snapshot.TokenRaw = orZero(token)
	snapshot.Base = decoder.ToDisplayBig(snapshot.BaseRaw)
	snapshot.Token = decoder.ToDisplayBig(snapshot.TokenRaw)
	return snapshot, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
