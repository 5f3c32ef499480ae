package store

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the ThreadRepository interface
type MySQLStore struct {
	sqlStore
}

// NewMySQLStore connects to MySQL and ensures the thread table exists
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS thread_emails (
			seq BIGINT AUTO_INCREMENT PRIMARY KEY,
			thread_key VARCHAR(255) NOT NULL,
			email_id VARCHAR(255),
			sender VARCHAR(320),
			subject TEXT,
			body MEDIUMTEXT,
			sent_date VARCHAR(64),
			attachments TEXT,
			sender_role VARCHAR(16),
			INDEX idx_thread_key (thread_key, seq)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{sqlStore{db: db, logger: logger, name: "mysql"}}, nil
}
