package core

// Status is the processing status reported for an email
type Status string

const (
	StatusProcessed    Status = "processed"
	StatusSkipped      Status = "skipped"
	StatusUnclassified Status = "unclassified"
	StatusFailed       Status = "failed"
)

// Skip reasons reported by the orchestrator
const (
	ReasonSupportEmail  = "support email, no processing required"
	ReasonNoOpenRequest = "no open customer request"
	ReasonDuplicate     = "duplicate customer request"
	ReasonUnclassified  = "no valid classification found"
)

// Outcome is the result of handling one email. The concrete types are
// Processed, Skipped, Unclassified and Failed.
type Outcome interface {
	Status() Status
	outcome()
}

// Processed carries the extraction rows of a classified email
type Processed struct {
	Requests []RequestResult
}

// Skipped means the email was deliberately not processed
type Skipped struct {
	Reason string
}

// Unclassified means classification succeeded but no label met the threshold
type Unclassified struct {
	Reason string
}

// Failed means an inference call failed after exhausting its retries
type Failed struct {
	Reason string
	Err    error
}

func (Processed) Status() Status    { return StatusProcessed }
func (Skipped) Status() Status      { return StatusSkipped }
func (Unclassified) Status() Status { return StatusUnclassified }
func (Failed) Status() Status       { return StatusFailed }

func (Processed) outcome()    {}
func (Skipped) outcome()      {}
func (Unclassified) outcome() {}
func (Failed) outcome()       {}

// ProcessingResponse is the uniform wire envelope for an Outcome
type ProcessingResponse struct {
	Status   Status          `json:"status"`
	Reason   string          `json:"reasonForNotProcessing,omitempty"`
	Requests []RequestResult `json:"responses"`
}

// Envelope converts an outcome into its wire representation
func Envelope(o Outcome) ProcessingResponse {
	resp := ProcessingResponse{Requests: []RequestResult{}}
	switch v := o.(type) {
	case Processed:
		resp.Status = StatusProcessed
		if v.Requests != nil {
			resp.Requests = v.Requests
		}
	case Skipped:
		resp.Status = StatusSkipped
		resp.Reason = v.Reason
	case Unclassified:
		resp.Status = StatusUnclassified
		resp.Reason = v.Reason
	case Failed:
		resp.Status = StatusFailed
		resp.Reason = v.Reason
		if resp.Reason == "" && v.Err != nil {
			resp.Reason = v.Err.Error()
		}
	default:
		resp.Status = StatusFailed
		resp.Reason = "unknown outcome"
	}
	return resp
}
