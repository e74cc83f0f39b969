package utils

// ObjectDataOptions selects the parts of an object returned by the node.
type ObjectDataOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
}

// ObjectResponseQuery is the query argument of suix_getOwnedObjects.
type ObjectResponseQuery struct {
	Filter  *ObjectFilter      `json:"filter,omitempty"`
	Options *ObjectDataOptions `json:"options,omitempty"`
}

// ObjectFilter filters owned objects by struct tag.
type ObjectFilter struct {
	StructType string `json:"StructType,omitempty"`
}

// TransactionBlockResponseOptions selects the parts of a transaction block returned by the node.
type TransactionBlockResponseOptions struct {
	ShowInput          bool `json:"showInput,omitempty"`
	ShowEffects        bool `json:"showEffects,omitempty"`
	ShowEvents         bool `json:"showEvents,omitempty"`
	ShowObjectChanges  bool `json:"showObjectChanges,omitempty"`
	ShowBalanceChanges bool `json:"showBalanceChanges,omitempty"`
}

// TransactionFilter is the filter of suix_queryTransactionBlocks.
type TransactionFilter struct {
	MoveFunction *MoveFunction `json:"MoveFunction,omitempty"`
}

// MoveFunction selects transactions calling a Move function.
type MoveFunction struct {
	Package  string  `json:"package"`
	Module   *string `json:"module"`
	Function *string `json:"function"`
}

// TransactionBlockResponseQuery is the query argument of suix_queryTransactionBlocks.
type TransactionBlockResponseQuery struct {
	Filter  *TransactionFilter               `json:"filter,omitempty"`
	Options *TransactionBlockResponseOptions `json:"options,omitempty"`
}

// Balance is the response of suix_getBalance.
type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    string `json:"totalBalance"`
}

// ExecuteRequestType is the execution mode of sui_executeTransactionBlock.
type ExecuteRequestType string

const (
	// WaitForEffectsCert returns once effects are certified.
	WaitForEffectsCert ExecuteRequestType = "WaitForEffectsCert"
	// WaitForLocalExecution returns once the node executed the transaction locally.
	WaitForLocalExecution ExecuteRequestType = "WaitForLocalExecution"
)

// Optional returns a pointer to s, or nil when s is empty.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
