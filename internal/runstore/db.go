// internal/runstore/db.go
package runstore

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to the Postgres run-history database and verifies the
// connection.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
