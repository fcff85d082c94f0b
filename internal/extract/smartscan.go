package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

// Transaction statuses reported by the SmartScan API.
const (
	statusDone   = "DONE"
	statusFailed = "FAILED"
)

// SmartScan implements Extractor and FeedbackSink against the SmartScan
// transactions API. A document is submitted as one transaction, polled until
// the service finishes, and its results are fetched as a DocumentResult. No
// request is ever retried here; a failed call surfaces verbatim and retrying
// is an explicit user action.
type SmartScan struct {
	baseURL      string
	token        string
	pollInterval time.Duration
	client       *http.Client
}

// NewSmartScan creates a new SmartScan client. baseURL points at the
// transactions endpoint, e.g. https://api.example.com/v1/transactions.
func NewSmartScan(baseURL, token string, pollInterval time.Duration) (*SmartScan, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("smartscan base url is required")
	}
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}

	return &SmartScan{
		baseURL:      baseURL,
		token:        token,
		pollInterval: pollInterval,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// transactionRequest is the body submitted to create a transaction.
type transactionRequest struct {
	Document transactionDocument `json:"document"`
	Features []string            `json:"features"`
	Tags     []string            `json:"tags,omitempty"`
}

type transactionDocument struct {
	Content string `json:"content"`
}

type transactionResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// extractionFeatures returns the full feature set requested for every
// document: the scalar review schema plus the purchase line table.
func extractionFeatures() []string {
	return append(annotation.AllFields(), annotation.FeaturePurchaseLines)
}

// Extract submits a document, waits for the transaction to complete and
// returns the structured result. The transaction id becomes the result's
// correlation id when the results body carries none of its own.
func (s *SmartScan) Extract(ctx context.Context, document []byte, contentType string) (*annotation.DocumentResult, error) {
	reqBody := transactionRequest{
		Document: transactionDocument{
			Content: base64.StdEncoding.EncodeToString(document),
		},
		Features: extractionFeatures(),
		Tags:     []string{"review"},
	}

	var created transactionResponse
	if err := s.postJSON(ctx, s.baseURL, reqBody, &created); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("smartscan API returned no transaction id")
	}

	slog.Info("Transaction created, waiting for completion", "transaction_id", created.ID)
	if err := s.waitForCompletion(ctx, created.ID); err != nil {
		return nil, err
	}

	var result annotation.DocumentResult
	url := fmt.Sprintf("%s/%s/results", s.baseURL, created.ID)
	if err := s.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("retrieving results: %w", err)
	}
	if result.ID == "" {
		result.ID = created.ID
	}

	return &result, nil
}

// waitForCompletion polls the transaction status until DONE or FAILED.
func (s *SmartScan) waitForCompletion(ctx context.Context, transactionID string) error {
	url := fmt.Sprintf("%s/%s/status", s.baseURL, transactionID)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for transaction %s: %w", transactionID, ctx.Err())
		case <-ticker.C:
		}

		var status statusResponse
		if err := s.getJSON(ctx, url, &status); err != nil {
			return fmt.Errorf("checking transaction status: %w", err)
		}

		slog.Debug("Transaction status", "transaction_id", transactionID, "status", status.Status)
		switch status.Status {
		case statusDone:
			return nil
		case statusFailed:
			return fmt.Errorf("transaction %s failed during processing", transactionID)
		}
	}
}

// SubmitFeedback sends a correction payload for a completed transaction.
func (s *SmartScan) SubmitFeedback(ctx context.Context, payload *annotation.FeedbackPayload) error {
	url := fmt.Sprintf("%s/%s/feedback", s.baseURL, payload.TransactionID)
	if err := s.postJSON(ctx, url, payload, nil); err != nil {
		return fmt.Errorf("submitting feedback: %w", err)
	}
	return nil
}

// Close closes the SmartScan client (no-op for HTTP client)
func (s *SmartScan) Close() error {
	return nil
}

func (s *SmartScan) postJSON(ctx context.Context, url string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.do(req, out)
}

func (s *SmartScan) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	return s.do(req, out)
}

func (s *SmartScan) do(req *http.Request, out any) error {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling smartscan API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("smartscan API error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
