package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TriageService gates every inbound email through thread bookkeeping before
// handing the thread's actionable email to the classification pipeline.
type TriageService struct {
	tracker   ThreadTracker
	processor RequestProcessor
	logger    *zap.Logger
}

// NewTriageService creates a new triage service
func NewTriageService(tracker ThreadTracker, processor RequestProcessor, logger *zap.Logger) *TriageService {
	return &TriageService{
		tracker:   tracker,
		processor: processor,
		logger:    logger,
	}
}

// HandleEmail records the email and processes the thread's actionable email, if any
func (s *TriageService) HandleEmail(ctx context.Context, email *Email) Outcome {
	start := time.Now()
	outcome := s.handle(ctx, email)

	fields := []zap.Field{
		zap.String("email_id", email.ID),
		zap.String("thread_id", email.ThreadKey()),
		zap.String("sender_role", string(email.Role)),
		zap.String("status", string(outcome.Status())),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch v := outcome.(type) {
	case Skipped:
		s.logger.Info("Skipping email", append(fields, zap.String("reason", v.Reason))...)
	case Failed:
		s.logger.Error("Email processing failed", append(fields, zap.String("reason", v.Reason), zap.Error(v.Err))...)
	case Unclassified:
		s.logger.Info("Email unclassified", fields...)
	case Processed:
		s.logger.Info("Processed email", append(fields, zap.Int("requests", len(v.Requests)))...)
	}
	return outcome
}

func (s *TriageService) handle(ctx context.Context, email *Email) Outcome {
	decision, err := s.tracker.Evaluate(ctx, email)
	if err != nil {
		return Failed{Reason: fmt.Sprintf("thread store failure: %v", err), Err: err}
	}

	// Support replies only close out customer requests
	if email.Role == RoleSupport {
		return Skipped{Reason: ReasonSupportEmail}
	}

	if decision.Actionable == nil {
		return Skipped{Reason: ReasonNoOpenRequest}
	}

	if decision.Duplicate {
		return Skipped{Reason: ReasonDuplicate}
	}

	if decision.Actionable.ID != email.ID {
		s.logger.Debug("Re-evaluating older actionable email",
			zap.String("trigger_email_id", email.ID),
			zap.String("actionable_email_id", decision.Actionable.ID))
	}

	return s.processor.Process(ctx, decision.Actionable)
}

// HandleBatch processes emails in order, one at a time
func (s *TriageService) HandleBatch(ctx context.Context, emails []*Email) []Outcome {
	outcomes := make([]Outcome, 0, len(emails))
	for _, email := range emails {
		outcomes = append(outcomes, s.HandleEmail(ctx, email))
	}
	return outcomes
}
