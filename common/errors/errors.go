package errors

import "github.com/pkg/errors"

var (
	ErrNetworkNotFound    = errors.New("network not found")
	ErrInvalidNetwork     = errors.New("invalid network")
	ErrDatabaseConnect    = errors.New("failed to connect to database")
	ErrInvalidConfig      = errors.New("invalid chain configuration")
	ErrFactoryNotProvided = errors.New("chain factory not provided")
	ErrInvalidChainType   = errors.New("invalid chain type")
	ErrNotImplemented     = errors.New("functionality not implemented")
	ErrClientNotReady     = errors.New("client not initialized")
	ErrInvalidAddress     = errors.New("invalid address")

	// Precondition failures, detected before any transaction is constructed.
	ErrWalletNotConnected  = errors.New("please connect your wallet first")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMissingParticipant  = errors.New("participant record not found for event")
	ErrMissingSubmission   = errors.New("submission record not found for event")
	ErrInvalidAmount       = errors.New("invalid amount")

	// Remote failures.
	ErrSubmissionFailed  = errors.New("transaction submission failed")
	ErrObjectNotFound    = errors.New("object not found")
	ErrTransactionFailed = errors.New("transaction execution failed")
	ErrRateMismatch      = errors.New("configured exchange rate does not match on-chain rate")

	// ErrUndecodable marks a single object whose fields do not match the expected shape.
	ErrUndecodable = errors.New("object could not be decoded")

	ErrUnknownQuery = errors.New("query not registered")
)

// IsPrecondition reports whether err is a local precondition failure.
func IsPrecondition(err error) bool {
	switch errors.Cause(err) {
	case ErrWalletNotConnected, ErrInsufficientBalance, ErrMissingParticipant, ErrMissingSubmission, ErrInvalidAmount:
		return true
	default:
		return false
	}
}
