package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeTracker struct {
	decision Decision
	err      error
	seen     []string
}

func (f *fakeTracker) Evaluate(_ context.Context, email *Email) (Decision, error) {
	f.seen = append(f.seen, email.ID)
	return f.decision, f.err
}

type fakeProcessor struct {
	outcome   Outcome
	processed []string
}

func (f *fakeProcessor) Process(_ context.Context, email *Email) Outcome {
	f.processed = append(f.processed, email.ID)
	return f.outcome
}

func TestHandleEmail(t *testing.T) {
	older := &Email{ID: "1", Sender: "c@example.com", ThreadID: "T", Role: RoleCustomer}
	current := &Email{ID: "2", Sender: "c@example.com", ThreadID: "T", Role: RoleCustomer}
	reply := &Email{ID: "3", Sender: "s@example.com", ThreadID: "T", Role: RoleSupport}
	processed := Processed{Requests: []RequestResult{{RequestType: "Adjustment", SubRequestType: "Reallocation Fees", Confidence: 0.9}}}

	tests := []struct {
		name          string
		email         *Email
		decision      Decision
		trackerErr    error
		wantStatus    Status
		wantReason    string
		wantProcessed []string
	}{
		{
			name:       "support reply is skipped",
			email:      reply,
			decision:   Decision{},
			wantStatus: StatusSkipped,
			wantReason: ReasonSupportEmail,
		},
		{
			name:       "no open request",
			email:      current,
			decision:   Decision{},
			wantStatus: StatusSkipped,
			wantReason: ReasonNoOpenRequest,
		},
		{
			name:       "duplicate request",
			email:      current,
			decision:   Decision{Actionable: current, Prior: []*Email{older}, Duplicate: true},
			wantStatus: StatusSkipped,
			wantReason: ReasonDuplicate,
		},
		{
			name:          "actionable email is processed",
			email:         current,
			decision:      Decision{Actionable: current, Prior: []*Email{older}},
			wantStatus:    StatusProcessed,
			wantProcessed: []string{"2"},
		},
		{
			name:          "older actionable email is processed",
			email:         current,
			decision:      Decision{Actionable: older},
			wantStatus:    StatusProcessed,
			wantProcessed: []string{"1"},
		},
		{
			name:       "thread store failure",
			email:      current,
			trackerErr: errors.New("disk full"),
			wantStatus: StatusFailed,
			wantReason: "thread store failure: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &fakeTracker{decision: tt.decision, err: tt.trackerErr}
			processor := &fakeProcessor{outcome: processed}
			svc := NewTriageService(tracker, processor, zaptest.NewLogger(t))

			outcome := svc.HandleEmail(context.Background(), tt.email)
			require.NotNil(t, outcome)
			assert.Equal(t, tt.wantStatus, outcome.Status())
			assert.Equal(t, []string{tt.email.ID}, tracker.seen, "every email is recorded")
			assert.Equal(t, tt.wantProcessed, processor.processed)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, Envelope(outcome).Reason)
			}
		})
	}
}

func TestHandleBatchKeepsOrder(t *testing.T) {
	tracker := &fakeTracker{}
	svc := NewTriageService(tracker, &fakeProcessor{}, zaptest.NewLogger(t))

	outcomes := svc.HandleBatch(context.Background(), []*Email{
		{ID: "a", Sender: "x@example.com", Role: RoleCustomer},
		{ID: "b", Sender: "y@example.com", Role: RoleSupport},
	})
	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{"a", "b"}, tracker.seen)
	assert.Equal(t, Skipped{Reason: ReasonNoOpenRequest}, outcomes[0])
	assert.Equal(t, Skipped{Reason: ReasonSupportEmail}, outcomes[1])
}
