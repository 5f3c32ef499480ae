package core

import (
	"strings"
)

// SenderRole identifies who wrote an email within a thread
type SenderRole string

const (
	RoleCustomer SenderRole = "customer"
	RoleSupport  SenderRole = "support"
)

// Valid reports whether the role is one of the known roles
func (r SenderRole) Valid() bool {
	return r == RoleCustomer || r == RoleSupport
}

// Email represents an inbound email message. Emails are never mutated after ingest.
type Email struct {
	ID          string     `json:"email_id" yaml:"email_id"`
	Sender      string     `json:"sender" yaml:"sender" validate:"required"`
	Subject     string     `json:"subject" yaml:"subject"`
	Body        string     `json:"body" yaml:"body"`
	Date        string     `json:"date" yaml:"date"`
	Attachments []string   `json:"attachments" yaml:"attachments"`
	ThreadID    string     `json:"thread_id" yaml:"thread_id"`
	Role        SenderRole `json:"sender_role" yaml:"sender_role" validate:"required,oneof=customer support"`
}

// ThreadKey returns the thread identifier, falling back to the sender address
// for single-off emails that carry no thread id.
func (e *Email) ThreadKey() string {
	if id := strings.TrimSpace(e.ThreadID); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(e.Sender))
}

// IsCustomer reports whether the email was written by a customer
func (e *Email) IsCustomer() bool {
	return e.Role == RoleCustomer
}

// SubTypeScore is a selected sub-request type with its classifier confidence
type SubTypeScore struct {
	Name  string
	Score float64
}

// ClassifiedRequest is one request type whose confidence met the threshold
type ClassifiedRequest struct {
	RequestType string
	SubTypes    []SubTypeScore
	Confidence  float64
}

// RequestResult is one extraction row of a processing response
type RequestResult struct {
	RequestType    string  `json:"requestType"`
	SubRequestType string  `json:"subRequestType"`
	Fields         Fields  `json:"extractedFields"`
	Confidence     float64 `json:"confidenceScore"`
}

// Classification is the raw output of a text classifier. Labels are ordered by
// score descending and paired with Scores by index.
type Classification struct {
	Labels []string
	Scores []float64
}

// Len returns the number of usable label/score pairs
func (c Classification) Len() int {
	if len(c.Scores) < len(c.Labels) {
		return len(c.Scores)
	}
	return len(c.Labels)
}
