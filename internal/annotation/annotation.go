package annotation

import "strconv"

// FeaturePurchaseLines is the feature name carrying line item candidates
// instead of scalar candidates.
const FeaturePurchaseLines = "PURCHASE_LINES"

// Confidence carries the extraction service's confidence metadata for a
// candidate value.
type Confidence struct {
	Level string `json:"level"`
}

// Candidate is a single proposed value for a field. Value is decoded as-is
// from JSON: a string, a number or a boolean. A nil Value means the service
// offered no value at all; "" and 0 and false are legitimate values.
type Candidate struct {
	Value      any         `json:"value"`
	Confidence *Confidence `json:"confidence,omitempty"`
}

// LineItem is one purchase line as returned by the extraction service. Cells
// are opaque at this layer; no numeric parsing or validation happens here.
type LineItem map[string]any

// Annotation is one extracted field's result. Scalar features carry
// Candidates; the PURCHASE_LINES feature carries PurchaseLineCandidates.
type Annotation struct {
	Feature                string      `json:"feature"`
	Candidates             []Candidate `json:"candidates,omitempty"`
	PurchaseLineCandidates []LineItem  `json:"purchaseLineCandidates,omitempty"`
}

// DocumentResult is the structured extraction result for one document. ID is
// the correlation id linking any later feedback to the original extraction
// and must be carried through the session unmodified.
type DocumentResult struct {
	ID          string       `json:"id"`
	Annotations []Annotation `json:"annotations"`
}

// valueText renders a decoded JSON scalar as editable text. Numbers keep
// their shortest representation so "0" and "10.5" round-trip cleanly.
func valueText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
