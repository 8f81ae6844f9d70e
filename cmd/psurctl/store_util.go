package main

import (
	"database/sql"
	"fmt"

	"github.com/Smarticus81/psurRegOSv1/internal/store"
)

// openStore opens the reference document store at dsn, falling back to
// the configured storage DSN when dsn is empty.
func openStore(dsn string) (*store.SQLiteStore, *sql.DB, error) {
	if dsn == "" {
		dsn = cfg.StorageDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open store %s: %w", dsn, err)
	}
	s, err := store.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db, nil
}
