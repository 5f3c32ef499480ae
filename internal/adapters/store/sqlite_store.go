package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the ThreadRepository interface
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (and if needed creates) a SQLite thread store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite serializes writers anyway; a single connection avoids "database is locked"
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS thread_emails (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_key TEXT NOT NULL,
			email_id TEXT,
			sender TEXT,
			subject TEXT,
			body TEXT,
			sent_date TEXT,
			attachments TEXT,
			sender_role TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_thread_key ON thread_emails(thread_key, seq)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{sqlStore{db: db, logger: logger, name: "sqlite"}}, nil
}
