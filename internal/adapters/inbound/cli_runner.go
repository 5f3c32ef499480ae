package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// CLIRunner processes a JSON batch of emails and prints each envelope
type CLIRunner struct {
	handler EmailHandler
	logger  *zap.Logger
	out     io.Writer
	verbose bool
}

// NewCLIRunner creates a new CLI runner writing results to out
func NewCLIRunner(handler EmailHandler, logger *zap.Logger, out io.Writer, verbose bool) *CLIRunner {
	return &CLIRunner{
		handler: handler,
		logger:  logger,
		out:     out,
		verbose: verbose,
	}
}

// DecodeBatch accepts either a JSON array of emails or an object with an "emails" array
func DecodeBatch(r io.Reader) ([]*core.Email, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	var emails []*core.Email
	if data[0] == '[' {
		err = json.Unmarshal(data, &emails)
	} else {
		var batch batchRequest
		err = json.Unmarshal(data, &batch)
		emails = batch.Emails
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse email batch: %w", err)
	}
	return emails, nil
}

// Run processes the batch in order. It returns the number of failed emails.
func (c *CLIRunner) Run(ctx context.Context, emails []*core.Email) (int, error) {
	failed := 0
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")

	for _, email := range emails {
		if email == nil {
			continue
		}
		if strings.TrimSpace(email.ID) == "" {
			email.ID = uuid.NewString()
		}
		if email.Role == "" {
			email.Role = core.RoleCustomer
		}

		if c.verbose {
			fmt.Fprintf(c.out, "\n=== Email %s ===\n", email.ID)
			fmt.Fprintf(c.out, "From: %s (%s)\n", email.Sender, email.Role)
			fmt.Fprintf(c.out, "Thread: %s\n", email.ThreadKey())
			fmt.Fprintf(c.out, "Subject: %s\n", email.Subject)
		}

		start := time.Now()
		resp := core.Envelope(c.handler.HandleEmail(ctx, email))
		if resp.Status == core.StatusFailed {
			failed++
		}
		c.logger.Debug("Handled email",
			zap.String("email_id", email.ID),
			zap.String("status", string(resp.Status)),
			zap.Duration("elapsed", time.Since(start)))

		if err := enc.Encode(EmailResult{Email: email, Response: resp}); err != nil {
			return failed, fmt.Errorf("failed to write result: %w", err)
		}
	}
	return failed, nil
}
