package inbound

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// EmailHandler runs one email through thread bookkeeping and the pipeline
type EmailHandler interface {
	HandleEmail(ctx context.Context, email *core.Email) core.Outcome
}

// SMTPIngest accepts mail over SMTP and hands each message to the triage service.
// Mail is never rejected because of its processing outcome.
type SMTPIngest struct {
	handler         EmailHandler
	roles           RoleResolver
	logger          *zap.Logger
	listenAddr      string
	domain          string
	maxMessageBytes int64
	timeout         time.Duration
	server          *smtp.Server
}

// NewSMTPIngest creates a new SMTP ingest server
func NewSMTPIngest(
	handler EmailHandler,
	roles RoleResolver,
	logger *zap.Logger,
	listenAddr string,
	domain string,
	maxMessageBytes int64,
	timeout time.Duration,
) *SMTPIngest {
	if domain == "" {
		domain = "localhost"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &SMTPIngest{
		handler:         handler,
		roles:           roles,
		logger:          logger,
		listenAddr:      listenAddr,
		domain:          domain,
		maxMessageBytes: maxMessageBytes,
		timeout:         timeout,
	}
}

// Start starts the SMTP server in the background
func (f *SMTPIngest) Start() error {
	f.server = smtp.NewServer(&smtpBackend{ingest: f})

	// Configure the server
	f.server.Addr = f.listenAddr
	f.server.Domain = f.domain
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = f.maxMessageBytes
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP ingest starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (f *SMTPIngest) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// Deliver parses a raw message and processes it. It is what every SMTP DATA
// command ends up calling.
func (f *SMTPIngest) Deliver(ctx context.Context, envelopeFrom string, raw []byte) (*core.Email, core.Outcome, error) {
	email, err := ParseMessage(raw, envelopeFrom, f.roles)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	outcome := f.handler.HandleEmail(ctx, email)
	resp := core.Envelope(outcome)
	f.logger.Info("Ingested email",
		zap.String("email_id", email.ID),
		zap.String("thread_id", email.ThreadKey()),
		zap.String("from", email.Sender),
		zap.String("sender_role", string(email.Role)),
		zap.String("status", string(resp.Status)),
		zap.String("reason", resp.Reason),
		zap.Int("requests", len(resp.Requests)))
	return email, outcome, nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	ingest *SMTPIngest
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{ingest: b.ingest}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	ingest     *SMTPIngest
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message and processes it
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.ingest.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	if _, _, err := s.ingest.Deliver(context.Background(), s.sender, raw); err != nil {
		// Accept the mail anyway; an unparseable message is logged and dropped
		s.ingest.logger.Error("Failed to ingest email",
			zap.Error(err),
			zap.String("sender", s.sender),
			zap.Int("recipients", len(s.recipients)))
	}
	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
