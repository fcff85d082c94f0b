package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

// extractionPrompt asks the model for the same feature set the SmartScan API
// extracts, as one flat JSON object plus a purchase line table.
const extractionPrompt = `You are analyzing a scanned invoice or receipt. Carefully read all text in the image and extract the requested fields.

Return ONLY valid JSON in this exact format:
{
  "fields": {
    "DOCUMENT_TYPE": "...",
    "DOCUMENT_DATE": "...",
    "DOCUMENT_NUMBER": "...",
    "ORDER_NUMBER": "...",
    "PAYMENT_DUE_DATE": "...",
    "CURRENCY": "...",
    "PAYMENT_METHOD": "...",
    "CREDIT_CARD_LAST_FOUR": "...",
    "SUPPLIER_NAME": "...",
    "SUPPLIER_ADDRESS": "...",
    "SUPPLIER_COUNTRY_CODE": "...",
    "SUPPLIER_VAT_NUMBER": "...",
    "SUPPLIER_ORGANISATION_NUMBER": "...",
    "RECEIVER_NAME": "...",
    "RECEIVER_ADDRESS": "...",
    "RECEIVER_COUNTRY_CODE": "...",
    "RECEIVER_VAT_NUMBER": "...",
    "RECEIVER_ORDER_NUMBER": "...",
    "TOTAL_EXCL_VAT": "...",
    "TOTAL_VAT": "...",
    "TOTAL_INCL_VAT": "...",
    "IBAN": "...",
    "BIC": "...",
    "BANK_ACCOUNT_NUMBER": "...",
    "BANK_REGISTRATION_NUMBER": "..."
  },
  "purchaseLines": [
    {"code": "...", "itemNumber": "...", "description": "...", "quantity": "...", "unit": "...", "unitPrice": "...", "unitPriceExclVat": "...", "unitPriceInclVat": "...", "totalAmount": "...", "totalExclVat": "...", "totalInclVat": "...", "totalVat": "...", "percentageVat": "...", "pageRef": "..."}
  ]
}

Important:
- Dates must be in YYYY-MM-DD format
- Use null for any field you cannot find; omit purchase line cells you cannot find
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// Gemini implements the Extractor interface using Google Gemini. It is the
// local alternative to the SmartScan API; there is no correction endpoint
// behind it, so it deliberately does not implement FeedbackSink.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Extract analyzes a document and returns a DocumentResult shaped like the
// SmartScan API's, with a locally minted correlation id.
func (g *Gemini) Extract(ctx context.Context, document []byte, contentType string) (*annotation.DocumentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pngData, err := normalizeToPNG(document, contentType)
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{
		genai.ImageData("png", pngData),
		genai.Text(extractionPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	annotations, err := parseExtractionJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing extraction result: %w", err)
	}

	return &annotation.DocumentResult{
		ID:          fmt.Sprintf("local-%d", time.Now().UnixNano()),
		Annotations: annotations,
	}, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
