package dbconfig

import (
	"context"
	"math/big"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
)

// RecordBalances upserts the base and token balances of an account.
//
// Parameters:
// - ctx: the context for managing the request.
// - network: the network name.
// - tokenCoinType: the coin type of the in-app token.
// - snapshot: the balances to store.
//
// Returns:
// - error: an error if the database operation fails.
func (r *DBConfig) RecordBalances(ctx context.Context, network, tokenCoinType string, snapshot types.BalanceSnapshot) error {
	if network == "" {
		return ErrInvalidNetwork
	}
	if snapshot.Address == "" {
		return ErrInvalidAddress
	}

	db, err := r.open()
	if err != nil {
		return err
	}
	defer db.Close()

	query := `
       INSERT INTO account_balances (network, address, coin_type, balance, balance_formatted, updated_at)
       VALUES ($1, $2, $3, $4, $5, NOW())
       ON CONFLICT (network, address, coin_type) DO UPDATE SET
           balance = EXCLUDED.balance,
           balance_formatted = EXCLUDED.balance_formatted,
           updated_at = NOW()
   `

	rows := []struct {
		coinType  string
		raw       *big.Int
		formatted float64
	}{
		{types.SuiCoinType, snapshot.BaseRaw, snapshot.Base},
		{tokenCoinType, snapshot.TokenRaw, snapshot.Token},
	}

	for _, row := range rows {
		raw := row.raw
		if raw == nil {
			raw = big.NewInt(0)
		}
		if _, err := db.ExecContext(ctx, query, network, snapshot.Address, row.coinType, raw.String(), row.formatted); err != nil {
			return errors.Wrapf(err, "failed to update %s balance", row.coinType)
		}
	}

	return nil
}
