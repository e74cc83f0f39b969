package chaintest

import (
	"strconv"

	"github.com/ClipFinance/quest-lib/common/types"
)

// Fixed addresses used across tests.
const (
	EventPackage = "0x00000000000000000000000000000000000000000000000000000000000000e1"
	TokenPackage = "0x00000000000000000000000000000000000000000000000000000000000000f1"
	Vault        = "0x00000000000000000000000000000000000000000000000000000000000000a1"
	Price        = "0x00000000000000000000000000000000000000000000000000000000000000a2"
	State        = "0x00000000000000000000000000000000000000000000000000000000000000a3"
	Alice        = "0x000000000000000000000000000000000000000000000000000000000000a11c"
)

// Deployment returns a complete deployment on the fixed addresses.
func Deployment() *types.Deployment {
	return &types.Deployment{
		EventPackageID: EventPackage,
		TokenPackageID: TokenPackage,
		EventModule:    "event",
		TokenModule:    "life_token",
		TokenStruct:    "RUN_TOKEN",
		TokenVaultID:   Vault,
		TokenPriceID:   Price,
		TokenStateID:   State,
		TokenRate:      types.DefaultTokenRate,
		PriceRateField: "run_per_sui",
		CreationFee:    types.DefaultCreationFee,
	}
}

// Config returns a chain configuration using Deployment.
func Config() *types.ChainConfig {
	return &types.ChainConfig{
		Name:       "Sui Testnet",
		ChainType:  types.SUI,
		Network:    "testnet",
		RpcUrl:     "http://localhost:9000",
		Deployment: Deployment(),
	}
}

// EventObject builds an Event object of Deployment with the given name and reward.
func EventObject(id, name string, rewardRaw uint64, claimed bool) types.ObjectData {
	return MoveObject(id, Deployment().EventStructType(), map[string]any{
		"id":             map[string]any{"id": id},
		"name":           name,
		"description":    "run 5k",
		"instructions":   "post a screenshot",
		"image_url":      "https://example.com/run.png",
		"creator":        Alice,
		"reward_amount":  strconv.FormatUint(rewardRaw, 10),
		"reward_asset":   "SUI",
		"reward_claimed": claimed,
		"vault_id":       map[string]any{"id": id + "0a"},
		"winner":         map[string]any{"vec": []any{}},
	})
}

// RecordObject builds a participant or submission record pointing at eventID.
func RecordObject(id, structType, eventID string) types.ObjectData {
	return MoveObject(id, structType, map[string]any{
		"id":       map[string]any{"id": id},
		"event_id": eventID,
	})
}
