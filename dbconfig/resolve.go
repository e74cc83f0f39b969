package dbconfig

import (
	"context"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/ClipFinance/quest-lib/dbconfig/models"
	"github.com/pkg/errors"
)

// Resolve overrides the deployment and RPC endpoint of a chain configuration with the rows stored
// for its network. A network without rows keeps its configuration.
//
// Parameters:
// - ctx: the context for managing the request.
// - config: the chain configuration to update in place.
//
// Returns:
// - error: an error if the database cannot be read or the resulting deployment is invalid.
func (r *DBConfig) Resolve(ctx context.Context, config *types.ChainConfig) error {
	if config == nil {
		return ErrInvalidNetwork
	}

	deployment, err := r.GetDeployment(ctx, config.Network)
	if err != nil && !errors.Is(err, ErrDeploymentNotFound) {
		return err
	}

	rpcs, err := r.GetRPCs(ctx, config.Network, true)
	if err != nil {
		return err
	}

	return applyOverrides(config, deployment, rpcs)
}

// applyOverrides merges database rows into the configuration.
func applyOverrides(config *types.ChainConfig, deployment *models.Deployment, rpcs []models.RPC) error {
	if len(rpcs) > 0 {
		config.RpcUrl = rpcs[0].URL
	}
	if config.RpcUrl == "" {
		return ErrRPCNotFound
	}

	if deployment == nil {
		return nil
	}

	if config.Deployment == nil {
		config.Deployment = &types.Deployment{}
	}
	d := config.Deployment

	d.EventPackageID = deployment.EventPackageID
	d.TokenPackageID = deployment.TokenPackageID
	d.TokenVaultID = deployment.TokenVaultID
	d.TokenPriceID = deployment.TokenPriceID
	d.TokenStateID = deployment.TokenStateID
	if deployment.EventModule.Valid && deployment.EventModule.String != "" {
		d.EventModule = deployment.EventModule.String
	}
	if deployment.TokenModule.Valid && deployment.TokenModule.String != "" {
		d.TokenModule = deployment.TokenModule.String
	}
	if deployment.TokenRate.Valid {
		if deployment.TokenRate.Int64 <= 0 {
			return errors.Errorf("deployment %d: token rate must be positive", deployment.ID)
		}
		d.TokenRate = uint64(deployment.TokenRate.Int64)
	}
	if deployment.CreationFee.Valid && deployment.CreationFee.Int64 >= 0 {
		d.CreationFee = uint64(deployment.CreationFee.Int64)
	}

	return errors.Wrapf(d.Validate(), "deployment %d", deployment.ID)
}
