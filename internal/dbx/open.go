package dbx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/waterwatch/internal/migrations"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=FULL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// Open opens (creating if needed) the SQLite database at dsn, applies the
// connection pragmas and runs schema migrations.
//
// The pool is limited to a single connection: the database is owned by one
// local user and a single writer avoids SQLITE_BUSY between concurrent
// transactions. It also makes ":memory:" usable, since every new connection
// to it would otherwise see an empty database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
