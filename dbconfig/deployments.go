package dbconfig

import (
	"context"
	"database/sql"

	"github.com/ClipFinance/quest-lib/dbconfig/models"
)

// GetDeployment returns the active contract deployment of a network.
//
// Parameters:
// - ctx: the context for managing the request.
// - network: the network name, e.g. "testnet".
//
// Returns:
// - *models.Deployment: the deployment row.
// - error: ErrDeploymentNotFound when the network has no active deployment, or a database error.
func (r *DBConfig) GetDeployment(ctx context.Context, network string) (*models.Deployment, error) {
	if network == "" {
		return nil, ErrInvalidNetwork
	}

	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var deployment models.Deployment
	err = db.QueryRowContext(ctx, `
       SELECT 
           id,
           network,
           event_package_id,
           token_package_id,
           event_module,
           token_module,
           token_vault_id,
           token_price_id,
           token_state_id,
           token_rate,
           creation_fee,
           active,
           created_at,
           updated_at
       FROM deployments
       WHERE network = $1 AND active = true
       ORDER BY updated_at DESC
       LIMIT 1
    `, network).Scan(
		&deployment.ID,
		&deployment.Network,
		&deployment.EventPackageID,
		&deployment.TokenPackageID,
		&deployment.EventModule,
		&deployment.TokenModule,
		&deployment.TokenVaultID,
		&deployment.TokenPriceID,
		&deployment.TokenStateID,
		&deployment.TokenRate,
		&deployment.CreationFee,
		&deployment.Active,
		&deployment.CreatedAt,
		&deployment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrDeploymentNotFound
	}

	if err != nil {
		return nil, ErrDatabaseConnect
	}

	return &deployment, nil
}
