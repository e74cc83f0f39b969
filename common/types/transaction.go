package types

// TransactionResult represents an executed transaction.
//
// Fields:
// - Digest: the transaction digest.
// - Sender: the address that signed the transaction.
// - Status: the execution status.
// - Error: the abort message reported by the node, if any.
// - CreatedObjects: ids of objects created by the transaction.
// - GasUsed: the total gas charged in MIST.
type TransactionResult struct {
	Digest         string            `json:"digest"`
	Sender         string            `json:"sender"`
	Status         TransactionStatus `json:"status"`
	Error          string            `json:"error,omitempty"`
	CreatedObjects []string          `json:"createdObjects,omitempty"`
	GasUsed        uint64            `json:"gasUsed"`
}

// TotalGas returns the net gas charge of a gas summary.
func (g GasCostSummary) TotalGas() uint64 {
	total := uint64(g.ComputationCost) + uint64(g.StorageCost)
	if rebate := uint64(g.StorageRebate); rebate < total {
		return total - rebate
	}
	return 0
}
