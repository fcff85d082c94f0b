package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

// modelExtraction is the JSON shape the local model is prompted to produce:
// a flat map of feature name to value plus an optional purchase line table.
type modelExtraction struct {
	Fields        map[string]any   `json:"fields"`
	PurchaseLines []map[string]any `json:"purchaseLines"`
}

// parseExtractionJSON parses a model response into annotations shaped like
// the SmartScan API's own results, so the review core never knows which
// backend produced them. Fields the model omitted (or answered null for)
// get no annotation; they render as missing slots.
func parseExtractionJSON(text string) ([]annotation.Annotation, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var extraction modelExtraction
	if err := json.Unmarshal([]byte(text), &extraction); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	var annotations []annotation.Annotation
	for _, field := range annotation.AllFields() {
		value, ok := extraction.Fields[field]
		if !ok || value == nil {
			continue
		}
		annotations = append(annotations, annotation.Annotation{
			Feature:    field,
			Candidates: []annotation.Candidate{{Value: value}},
		})
	}

	if len(extraction.PurchaseLines) > 0 {
		lines := make([]annotation.LineItem, 0, len(extraction.PurchaseLines))
		for _, row := range extraction.PurchaseLines {
			lines = append(lines, annotation.LineItem(row))
		}
		annotations = append(annotations, annotation.Annotation{
			Feature:                annotation.FeaturePurchaseLines,
			PurchaseLineCandidates: lines,
		})
	}

	return annotations, nil
}
