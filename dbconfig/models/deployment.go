package models

import (
	"database/sql"
	"time"
)

// Deployment is a row of the deployments table. Empty columns keep the built-in defaults.
type Deployment struct {
	ID             int64
	Network        string
	EventPackageID string
	TokenPackageID string
	EventModule    sql.NullString
	TokenModule    sql.NullString
	TokenVaultID   string
	TokenPriceID   string
	TokenStateID   string
	TokenRate      sql.NullInt64
	CreationFee    sql.NullInt64
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
