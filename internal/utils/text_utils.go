package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TruncationMarker is appended to prompt material cut to fit a byte budget
const TruncationMarker = "\n[... truncated ...]"

// TextProcessor keeps prompt material (attachment text, email bodies) within
// the byte budget of an inference backend.
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText cuts text to at most maxSize bytes on a rune boundary and marks
// the cut. A non-positive maxSize disables the limit.
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	tp.logger.Debug("Prompt material truncated",
		zap.Int("original_bytes", len(text)),
		zap.Int("kept_bytes", cut),
		zap.Int("budget", maxSize))

	return text[:cut] + TruncationMarker
}

// SanitizeUTF8 drops invalid UTF-8 sequences. Backends reject requests carrying them.
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	clean := strings.ToValidUTF8(text, "")
	tp.logger.Debug("Dropped invalid UTF-8",
		zap.Int("original_bytes", len(text)),
		zap.Int("clean_bytes", len(clean)))
	return clean
}

// ProcessText sanitizes text and fits it into maxSize bytes
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.TruncateText(tp.SanitizeUTF8(text), maxSize)
}
