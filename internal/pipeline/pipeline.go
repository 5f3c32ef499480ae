// Package pipeline classifies an actionable email into request types and
// sub-types and extracts the catalog fields for each selected pair.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/email-triage/internal/catalog"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// UnknownRequestType is reported for labels that are not in the catalog
const UnknownRequestType = "Unknown"

// Options configures classification gating and extraction
type Options struct {
	// ConfidenceThreshold is the minimum score for a label to be kept
	ConfidenceThreshold float64
	// LabelSuffix is appended to catalog names to form candidate labels
	LabelSuffix string
	// MaxLength bounds the extractor's generated output
	MaxLength int
	// MaxBodySize bounds the email body placed in prompts, in bytes
	MaxBodySize int
	// MaxAttachmentSize bounds the attachment text sent to the extractor, in bytes
	MaxAttachmentSize int
}

// DefaultOptions returns the standard pipeline settings
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.5,
		LabelSuffix:         " Request",
		MaxLength:           200,
		MaxBodySize:         4096,
		MaxAttachmentSize:   4096,
	}
}

// Pipeline implements core.RequestProcessor
type Pipeline struct {
	catalog     *catalog.Catalog
	classifier  core.TextClassifier
	extractor   core.FieldExtractor
	attachments core.AttachmentSource
	text        *utils.TextProcessor
	opts        Options
	logger      *zap.Logger
}

// New creates a pipeline. attachments may be nil.
func New(
	cat *catalog.Catalog,
	classifier core.TextClassifier,
	extractor core.FieldExtractor,
	attachments core.AttachmentSource,
	text *utils.TextProcessor,
	opts Options,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		catalog:     cat,
		classifier:  classifier,
		extractor:   extractor,
		attachments: attachments,
		text:        text,
		opts:        opts,
		logger:      logger,
	}
}

// Process classifies the email and extracts fields for every request it contains
func (p *Pipeline) Process(ctx context.Context, email *core.Email) core.Outcome {
	start := time.Now()
	subject := utils.CleanText(email.Subject)
	body := p.budget(utils.CleanText(email.Body), p.opts.MaxBodySize)

	requests, err := p.Classify(ctx, subject, body)
	if err != nil {
		p.logger.Error("Classification failed",
			zap.String("email_id", email.ID),
			zap.Error(err))
		return core.Failed{Reason: fmt.Sprintf("classification failed: %v", err), Err: err}
	}
	if len(requests) == 0 {
		p.logger.Info("No request type met the confidence threshold",
			zap.String("email_id", email.ID),
			zap.Float64("threshold", p.opts.ConfidenceThreshold))
		return core.Unclassified{Reason: core.ReasonUnclassified}
	}

	attachments := p.attachmentText(ctx, email)

	var rows []core.RequestResult
	for _, req := range requests {
		if _, ok := p.catalog.Lookup(req.RequestType); !ok {
			p.logger.Warn("Classifier returned a label outside the catalog",
				zap.String("email_id", email.ID),
				zap.String("label", req.RequestType))
			rows = append(rows, core.RequestResult{
				RequestType: UnknownRequestType,
				Fields:      core.Fields{},
				Confidence:  req.Confidence,
			})
			continue
		}

		extracted, err := p.extractRequest(ctx, req, subject, body, attachments)
		if err != nil {
			p.logger.Error("Field extraction failed",
				zap.String("email_id", email.ID),
				zap.String("request_type", req.RequestType),
				zap.Error(err))
			return core.Failed{Reason: fmt.Sprintf("field extraction failed: %v", err), Err: err}
		}
		rows = append(rows, extracted...)
	}

	p.logger.Info("Email processed",
		zap.String("email_id", email.ID),
		zap.Int("requests", len(rows)),
		zap.Duration("elapsed", time.Since(start)))

	return core.Processed{Requests: rows}
}

// Classify runs top-level and sub-type classification. Every label at or above the
// threshold is kept. Any hard classifier failure aborts the whole classification.
func (p *Pipeline) Classify(ctx context.Context, subject, body string) ([]core.ClassifiedRequest, error) {
	text := fmt.Sprintf("Subject: %s\nBody: %s", subject, body)

	result, err := p.classifier.Classify(ctx, text, p.labels(p.catalog.Names()), true)
	if err != nil {
		return nil, fmt.Errorf("request type classification: %w", err)
	}

	var requests []core.ClassifiedRequest
	for _, scored := range p.accepted(result) {
		req := core.ClassifiedRequest{RequestType: scored.Name, Confidence: scored.Score}

		if def, ok := p.catalog.Lookup(scored.Name); ok && len(def.SubTypes) > 0 {
			subResult, err := p.classifier.Classify(ctx, text, p.labels(def.SubTypeNames()), true)
			if err != nil {
				return nil, fmt.Errorf("sub-type classification for %s: %w", scored.Name, err)
			}
			req.SubTypes = p.accepted(subResult)
		}

		p.logger.Debug("Request type accepted",
			zap.String("request_type", req.RequestType),
			zap.Float64("confidence", req.Confidence),
			zap.Int("sub_types", len(req.SubTypes)))

		requests = append(requests, req)
	}
	return requests, nil
}

func (p *Pipeline) labels(names []string) []string {
	labels := make([]string, len(names))
	for i, name := range names {
		labels[i] = name + p.opts.LabelSuffix
	}
	return labels
}

// accepted keeps the label/score pairs that meet the threshold, in classifier order
func (p *Pipeline) accepted(result core.Classification) []core.SubTypeScore {
	var out []core.SubTypeScore
	for i := 0; i < result.Len(); i++ {
		if result.Scores[i] < p.opts.ConfidenceThreshold {
			continue
		}
		name := result.Labels[i]
		if p.opts.LabelSuffix != "" {
			name = strings.TrimSuffix(name, p.opts.LabelSuffix)
		}
		out = append(out, core.SubTypeScore{Name: name, Score: result.Scores[i]})
	}
	return out
}

// extractRequest produces one row per selected sub-type, or a single row when none was selected
func (p *Pipeline) extractRequest(ctx context.Context, req core.ClassifiedRequest, subject, body, attachments string) ([]core.RequestResult, error) {
	pairs := req.SubTypes
	if len(pairs) == 0 {
		pairs = []core.SubTypeScore{{Name: "", Score: req.Confidence}}
	}

	rows := make([]core.RequestResult, 0, len(pairs))
	for _, pair := range pairs {
		names := p.catalog.Fields(req.RequestType, pair.Name)
		row := core.RequestResult{
			RequestType:    req.RequestType,
			SubRequestType: pair.Name,
			Fields:         core.Fields{},
			Confidence:     pair.Score,
		}

		if len(names) > 0 {
			output, err := p.extractor.Generate(ctx, ExtractionPrompt(names, subject, body, attachments), p.opts.MaxLength)
			if err != nil {
				return nil, err
			}
			row.Fields = ParseFields(output, names)
			if missing := countNotProvided(row.Fields); missing == len(names) {
				p.logger.Debug("Extractor output yielded no fields",
					zap.String("request_type", req.RequestType),
					zap.String("sub_request_type", pair.Name))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (p *Pipeline) attachmentText(ctx context.Context, email *core.Email) string {
	if p.attachments == nil || len(email.Attachments) == 0 {
		return ""
	}
	texts := p.attachments.Texts(ctx, email.Attachments)
	return p.budget(strings.Join(texts, "\n"), p.opts.MaxAttachmentSize)
}

// budget fits email material into its share of the prompt. Prompts are built
// from budgeted parts so the closing instructions are never cut.
func (p *Pipeline) budget(text string, maxSize int) string {
	if p.text == nil {
		return text
	}
	return p.text.ProcessText(text, maxSize)
}

func countNotProvided(fields core.Fields) int {
	n := 0
	for _, f := range fields {
		if f.Value.State == core.FieldNotProvided {
			n++
		}
	}
	return n
}
