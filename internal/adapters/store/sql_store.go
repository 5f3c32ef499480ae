package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// sqlStore holds the queries shared by the SQLite and MySQL thread stores.
// Both dialects accept ? placeholders.
type sqlStore struct {
	db     *sql.DB
	logger *zap.Logger
	name   string
}

// Append adds an email to the end of its thread
func (s *sqlStore) Append(ctx context.Context, email *core.Email) error {
	attachments, err := json.Marshal(email.Attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO thread_emails (thread_key, email_id, sender, subject, body, sent_date, attachments, sender_role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, email.ThreadKey(), email.ID, email.Sender, email.Subject, email.Body, email.Date, string(attachments), string(email.Role))
	if err != nil {
		return fmt.Errorf("failed to insert email into %s store: %w", s.name, err)
	}
	return nil
}

// Thread returns the emails of a thread in arrival order
func (s *sqlStore) Thread(ctx context.Context, key string) ([]*core.Email, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email_id, sender, subject, body, sent_date, attachments, sender_role
		FROM thread_emails
		WHERE thread_key = ?
		ORDER BY seq ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}
	defer rows.Close()

	emails := make([]*core.Email, 0)
	for rows.Next() {
		var (
			email       core.Email
			attachments string
			role        string
		)
		if err := rows.Scan(&email.ID, &email.Sender, &email.Subject, &email.Body, &email.Date, &attachments, &role); err != nil {
			return nil, fmt.Errorf("failed to scan email row: %w", err)
		}
		if attachments != "" {
			if err := json.Unmarshal([]byte(attachments), &email.Attachments); err != nil {
				s.logger.Warn("Dropping undecodable attachment list",
					zap.String("email_id", email.ID),
					zap.Error(err))
			}
		}
		email.ThreadID = key
		email.Role = core.SenderRole(role)
		emails = append(emails, &email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate thread rows: %w", err)
	}
	return emails, nil
}

// Threads lists known thread keys
func (s *sqlStore) Threads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT thread_key FROM thread_emails ORDER BY thread_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan thread key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Stop closes the database connection
func (s *sqlStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.String("store", s.name), zap.Error(err))
	}
}
