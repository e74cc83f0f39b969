package types

// TransactionStatus is the outcome of a submitted transaction.
type TransactionStatus string

const (
	// TxDone is the status of a transaction executed successfully.
	TxDone TransactionStatus = "DONE"
	// TxFailed is the status of a transaction aborted by the contract or rejected by the node.
	TxFailed TransactionStatus = "FAILED"
	// TxNeedsRetry is the status of a transaction whose outcome could not be determined.
	TxNeedsRetry TransactionStatus = "NEEDS_RETRY"
)

// Execution status values reported in transaction effects.
const (
	ExecutionSuccess = "success"
	ExecutionFailure = "failure"
)

// NotificationKind classifies a user-facing message.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)
