package annotation

import (
	"errors"
	"strings"
)

// ErrMissingCorrelation means feedback was attempted without the correlation
// id of the source document; the payload cannot be constructed.
var ErrMissingCorrelation = errors.New("missing document correlation id")

// ErrEmptyFeedback means every field and every line item cell is empty;
// there is nothing worth sending.
var ErrEmptyFeedback = errors.New("no feedback to send")

// FeedbackPayload is the sparse correction payload sent back to the
// extraction service. Fields holds only keys a human judged worth keeping or
// correcting: absent keys mean "no correction offered", not "value is
// empty". Values are trimmed strings, except PURCHASE_LINES which holds a
// slice of sparse row maps.
type FeedbackPayload struct {
	TransactionID string         `json:"transactionId"`
	Fields        map[string]any `json:"fields"`
}

// BuildFeedback collapses an edit state into a FeedbackPayload. It returns
// ErrMissingCorrelation when documentID is empty (checked before any field
// is examined) and ErrEmptyFeedback when nothing non-empty survives
// trimming. Calling it again on an unmodified state yields an identical
// payload.
func BuildFeedback(documentID string, state *EditState) (*FeedbackPayload, error) {
	if documentID == "" {
		return nil, ErrMissingCorrelation
	}

	fields := make(map[string]any)
	for _, f := range state.Fields() {
		trimmed := strings.TrimSpace(f.Value)
		if trimmed == "" {
			continue
		}
		fields[f.Field] = trimmed
	}

	var lines []map[string]string
	for _, row := range state.Rows() {
		sparse := make(map[string]string)
		for _, column := range LineColumns {
			trimmed := strings.TrimSpace(row[column])
			if trimmed == "" {
				continue
			}
			sparse[column] = trimmed
		}
		if len(sparse) > 0 {
			lines = append(lines, sparse)
		}
	}
	if len(lines) > 0 {
		fields[FeaturePurchaseLines] = lines
	}

	if len(fields) == 0 {
		return nil, ErrEmptyFeedback
	}

	return &FeedbackPayload{TransactionID: documentID, Fields: fields}, nil
}
