package dbconfig

import (
	commonErrors "github.com/ClipFinance/quest-lib/common/errors"
	"github.com/pkg/errors"
)

var (
	ErrDeploymentNotFound = errors.New("deployment not found")
	ErrRPCNotFound        = errors.New("no active rpc for network")
	ErrInvalidNetwork     = errors.New("invalid network")
	ErrInvalidAddress     = commonErrors.ErrInvalidAddress
	ErrDatabaseConnect    = errors.New("failed to connect to database")
)
