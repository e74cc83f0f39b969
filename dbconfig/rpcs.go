package dbconfig

import (
	"context"
	"database/sql"

	"github.com/ClipFinance/quest-lib/dbconfig/models"
)

// GetRPCs returns the RPC endpoints of a network ordered by priority, optionally filtering by active status.
//
// Parameters:
// - ctx: the context for managing the request.
// - network: the network name.
// - activeOnly: a boolean flag to filter only active RPCs.
//
// Returns:
// - []models.RPC: a slice of RPC models.
// - error: an error if the database operation fails.
func (r *DBConfig) GetRPCs(ctx context.Context, network string, activeOnly bool) ([]models.RPC, error) {
	if network == "" {
		return nil, ErrInvalidNetwork
	}

	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
  		SELECT 
  			id,
			network,
			url,
			provider,
			priority,
			active,
			created_at,
			updated_at
		FROM rpcs
		WHERE network = $1
   `

	args := []interface{}{network}

	if activeOnly {
		query += " AND active = $2"
		args = append(args, true)
	}

	query += " ORDER BY priority ASC, created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ErrDatabaseConnect
	}
	defer rows.Close()

	var rpcs []models.RPC
	for rows.Next() {
		var rpc models.RPC
		var provider sql.NullString

		err := rows.Scan(
			&rpc.ID,
			&rpc.Network,
			&rpc.URL,
			&provider,
			&rpc.Priority,
			&rpc.Active,
			&rpc.CreatedAt,
			&rpc.UpdatedAt,
		)
		if err != nil {
			return nil, ErrDatabaseConnect
		}

		if provider.Valid {
			rpc.Provider = provider.String
		}

		rpcs = append(rpcs, rpc)
	}

	if err = rows.Err(); err != nil {
		return nil, ErrDatabaseConnect
	}

	return rpcs, nil
}
