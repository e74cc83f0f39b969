package dbconfig

import (
	"database/sql"

	_ "github.com/lib/pq"
)

type DBConfig struct {
	dbConnStr string
}

// NewDBConfig creates a new DBConfig instance with the provided connection string.
//
// Parameters:
// - connStr: the database connection string.
//
// Returns:
// - *DBConfig: a pointer to the newly created DBConfig instance.
// - error: an error if the connection string is empty.
func NewDBConfig(connStr string) (*DBConfig, error) {
	if connStr == "" {
		return nil, ErrDatabaseConnect
	}
	return &DBConfig{
		dbConnStr: connStr,
	}, nil
}

// open opens a short-lived connection pool for a single operation.
func (r *DBConfig) open() (*sql.DB, error) {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, ErrDatabaseConnect
	}
	return db, nil
}
