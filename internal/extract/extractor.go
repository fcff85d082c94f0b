package extract

import (
	"context"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

// Extractor defines the interface for document extraction backends.
type Extractor interface {
	// Extract analyzes a document and returns its structured extraction result
	Extract(ctx context.Context, document []byte, contentType string) (*annotation.DocumentResult, error)
	// Close closes the extractor and releases resources
	Close() error
}

// FeedbackSink receives human-corrected feedback payloads for model
// improvement.
type FeedbackSink interface {
	// SubmitFeedback sends a correction payload for a previously extracted document
	SubmitFeedback(ctx context.Context, payload *annotation.FeedbackPayload) error
}
