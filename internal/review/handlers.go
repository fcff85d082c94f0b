package review

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON {"error": ...} response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleListDocuments returns a list of all documents
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := s.service.ListDocuments()
	if err != nil {
		slog.Error("Error listing documents", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(documents); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadDocument handles document upload and extraction
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 50MB to handle high-resolution phone photos)
	maxFormSize := int64(50 << 20) // 50MB
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your document."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your document.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	// Determine content type
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	review, err := s.service.ProcessDocument(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing document", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message": "Document processed successfully",
		"result":  review,
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetDocument returns a document with its current review records
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Document ID required", http.StatusBadRequest)
		return
	}
	review, err := s.service.GetReview(id)
	if err != nil {
		corsError(w, "Document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(review); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetDocumentFile returns the stored original for a document
func (s *Server) handleGetDocumentFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Document ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetDocumentFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteDocument deletes a document and ends its session
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Document ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteDocument(id); err != nil {
		corsError(w, "Error deleting document", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// editRequest is the body of a field or cell edit.
type editRequest struct {
	Value string `json:"value"`
}

// handleSetField overwrites one scalar field slot
func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	name := r.PathValue("name")

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.service.SetFieldValue(id, name, req.Value); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSetCell overwrites one line item cell
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	column := r.PathValue("column")
	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		corsError(w, "Invalid row index", http.StatusBadRequest)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.service.SetCellValue(id, row, column, req.Value); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmitFeedback reconciles and submits a document's corrections. The
// two blocking conditions get distinct messages so the presentation layer
// can tell them apart.
func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Document ID required", http.StatusBadRequest)
		return
	}

	record, err := s.service.SubmitFeedback(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, annotation.ErrMissingCorrelation):
			jsonError(w, "Document has no correlation id - feedback cannot be submitted", http.StatusUnprocessableEntity)
		case errors.Is(err, annotation.ErrEmptyFeedback):
			jsonError(w, "Nothing to send - all fields and line items are empty", http.StatusUnprocessableEntity)
		case errors.Is(err, ErrNoFeedbackEndpoint):
			jsonError(w, "The configured extraction backend has no feedback endpoint", http.StatusServiceUnavailable)
		default:
			slog.Error("Error submitting feedback", "document_id", id, "error", err)
			jsonError(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message":  "Feedback submitted successfully",
		"feedback": record,
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListFeedback returns the archived feedback records for a document
func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Document ID required", http.StatusBadRequest)
		return
	}
	records, err := s.service.ListFeedback(id)
	if err != nil {
		slog.Error("Error listing feedback", "document_id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if records == nil {
		records = []*FeedbackRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
