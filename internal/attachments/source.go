// Package attachments resolves attachment identifiers to text for the field extractor.
package attachments

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// Marker texts returned in place of content
const (
	UnsupportedFormat = "Unsupported file format"
	notFoundFormat    = "Error: File not found - %s"
	invalidPathFormat = "Error: Invalid attachment path - %s"
	readErrorFormat   = "Error reading file: %v"
	noPDFText         = "No extractable text found in PDF"
)

// DirectorySource reads attachments from a folder on disk
type DirectorySource struct {
	folder    string
	pdftotext string
	logger    *zap.Logger
}

// NewDirectorySource creates a source rooted at folder. PDF support is enabled
// when pdftotext is available on PATH.
func NewDirectorySource(folder string, logger *zap.Logger) (*DirectorySource, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attachment folder: %w", err)
	}

	s := &DirectorySource{folder: abs, logger: logger}
	if path, err := exec.LookPath("pdftotext"); err == nil {
		s.pdftotext = path
	} else {
		logger.Info("pdftotext not found, PDF attachments will be reported as unsupported")
	}
	return s, nil
}

// Texts returns one text per identifier, in order. Failures are reported inline as marker text.
func (s *DirectorySource) Texts(ctx context.Context, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.text(ctx, id))
	}
	return out
}

func (s *DirectorySource) text(ctx context.Context, id string) string {
	path := filepath.Join(s.folder, filepath.FromSlash(id))
	rel, err := filepath.Rel(s.folder, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		s.logger.Warn("Rejected attachment outside the attachment folder", zap.String("attachment", id))
		return fmt.Sprintf(invalidPathFormat, id)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Sprintf(notFoundFormat, path)
	}
	if err != nil {
		return fmt.Sprintf(readErrorFormat, err)
	}

	switch strings.ToLower(filepath.Ext(id)) {
	case ".txt", ".csv", ".md", ".json", ".eml":
		return string(data)
	case ".html", ".htm":
		return strings.Join(strings.Fields(utils.StripHTML(string(data))), " ")
	case ".pdf":
		return s.pdf(ctx, path)
	default:
		return UnsupportedFormat
	}
}

func (s *DirectorySource) pdf(ctx context.Context, path string) string {
	if s.pdftotext == "" {
		return UnsupportedFormat
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.pdftotext, "-layout", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		s.logger.Warn("pdftotext failed",
			zap.String("path", path),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err))
		return fmt.Sprintf("Error reading PDF: %v", err)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return noPDFText
	}
	return text
}

// NoopSource ignores attachments
type NoopSource struct{}

// Texts returns nothing
func (NoopSource) Texts(context.Context, []string) []string { return nil }
