package annotation

import "log/slog"

// FieldValue is the effective value of one field: the top-ranked candidate,
// the only one ever surfaced for review.
type FieldValue struct {
	Value           string
	ConfidenceLevel string
}

// Index provides O(1) lookup of annotations by feature name, built once at
// ingestion time.
type Index struct {
	byFeature map[string]Annotation
}

// NewIndex builds an Index from an extraction result's annotation list.
// Feature names are unique per document; if the service ever sends a
// duplicate, the first annotation wins and the duplicate is logged.
func NewIndex(annotations []Annotation) *Index {
	byFeature := make(map[string]Annotation, len(annotations))
	for _, a := range annotations {
		if _, ok := byFeature[a.Feature]; ok {
			slog.Warn("Duplicate feature in extraction result, keeping first", "feature", a.Feature)
			continue
		}
		byFeature[a.Feature] = a
	}
	return &Index{byFeature: byFeature}
}

// Lookup returns the effective value for a field. The second return value is
// false when the field has no annotation, no candidates, or the top candidate
// carries no value. Empty string, zero and false are values: presence means
// the service proposed something, not that the proposal is truthy.
func (ix *Index) Lookup(field string) (FieldValue, bool) {
	a, ok := ix.byFeature[field]
	if !ok || len(a.Candidates) == 0 {
		return FieldValue{}, false
	}
	top := a.Candidates[0]
	if top.Value == nil {
		return FieldValue{}, false
	}
	level := "N/A"
	if top.Confidence != nil && top.Confidence.Level != "" {
		level = top.Confidence.Level
	}
	return FieldValue{Value: valueText(top.Value), ConfidenceLevel: level}, true
}

// Lines returns the purchase line rows, in source order. Missing feature or
// an empty collection both yield an empty slice.
func (ix *Index) Lines() []LineItem {
	a, ok := ix.byFeature[FeaturePurchaseLines]
	if !ok {
		return []LineItem{}
	}
	if a.PurchaseLineCandidates == nil {
		return []LineItem{}
	}
	return a.PurchaseLineCandidates
}
