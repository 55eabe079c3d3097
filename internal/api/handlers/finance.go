package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpcosta/agency-ops/internal/api/middleware"
	"github.com/rpcosta/agency-ops/internal/extract"
	"github.com/rpcosta/agency-ops/internal/jobs"
	"github.com/rpcosta/agency-ops/internal/llm"
	"github.com/rpcosta/agency-ops/internal/store"
)

// transactionResponse is the answer shape of both extraction endpoints.
// Persisted is false when the record was extracted but could not be
// stored; the dashboard then offers a manual retry instead of losing the
// extraction.
type transactionResponse struct {
	TransactionID string         `json:"transaction_id"`
	Record        extract.Record `json:"record"`
	Status        string         `json:"status"`
	Persisted     bool           `json:"persisted"`
}

// ExtractText extracts one transaction from free text typed by a team
// member and stores it as a pending row.
func (s *Server) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	raw, err := s.chat.Complete(r.Context(), llm.ChatRequest{
		System:      extract.FinanceTextPrompt,
		User:        req.Text,
		Temperature: llm.TemperatureExtraction,
	})
	if err != nil {
		s.writeModelError(w, "ExtractText", err)
		return
	}

	record := extract.NormalizeTransaction(raw, req.Text, extract.SourceText, s.now())
	middleware.WriteJSON(w, http.StatusOK, s.persistTransaction(r, record, ""))
}

// ExtractReceipt runs OCR extraction on an uploaded receipt image in one
// synchronous round trip. Larger batches go through UploadReceipt and the
// async worker instead.
func (s *Server) ExtractReceipt(w http.ResponseWriter, r *http.Request) {
	upload, err := readImageUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "An image upload is required (multipart 'file' or JSON image_base64)")
		return
	}

	raw, err := s.vision.ReadImage(r.Context(), extract.ReceiptPrompt, upload.Data, upload.MimeType)
	if err != nil {
		s.writeModelError(w, "ExtractReceipt", err)
		return
	}

	record := extract.NormalizeTransaction(raw, "", extract.SourceOCR, s.now())
	resp := s.persistTransaction(r, record, upload.ReceiptID)

	// Back-reference the receipt row when the caller named one. Best
	// effort: the transaction is already committed.
	if upload.ReceiptID != "" && resp.Persisted {
		if err := s.receipts.LinkTransaction(r.Context(), upload.ReceiptID, resp.TransactionID); err != nil {
			s.log.Warn().Err(err).Str("receipt_id", upload.ReceiptID).
				Str("transaction_id", resp.TransactionID).Msg("Receipt back-reference failed")
		}
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// UploadReceipt stores a receipt image and enqueues extraction for the
// background worker. The dashboard polls the receipt status afterwards.
func (s *Server) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	upload, err := readImageUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "An image upload is required (multipart 'file' or JSON image_base64)")
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	userEmail := ""
	if identity != nil {
		userEmail = identity.Email
	}

	receiptID := uuid.New().String()
	objectName := fmt.Sprintf("receipts/%s/%s%s", s.now().Format("2006/01"), receiptID, extensionFor(upload.MimeType))

	gcsURI, err := s.objects.UploadBytes(r.Context(), objectName, upload.MimeType, upload.Data)
	if err != nil {
		s.log.Error().Err(err).Str("receipt_id", receiptID).Msg("Receipt upload to storage failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store receipt")
		return
	}

	row := &store.ReceiptRow{
		ReceiptID: receiptID,
		UserEmail: userEmail,
		GCSURI:    gcsURI,
		MimeType:  upload.MimeType,
		Status:    store.ReceiptStatusPending,
		UploadTS:  s.now(),
	}
	if err := s.receipts.InsertReceipt(r.Context(), row); err != nil {
		s.log.Error().Err(err).Str("receipt_id", receiptID).Msg("Receipt row insert failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record receipt")
		return
	}

	job := &jobs.ExtractReceiptJob{
		JobID:      uuid.New().String(),
		ReceiptID:  receiptID,
		GCSURI:     gcsURI,
		MimeType:   upload.MimeType,
		UserEmail:  userEmail,
		Status:     jobs.JobStatusPending,
		CreatedAt:  s.now(),
		MaxRetries: 3,
	}
	if err := s.publisher.PublishExtractReceipt(r.Context(), job); err != nil {
		s.log.Error().Err(err).Str("receipt_id", receiptID).Msg("Failed to enqueue extraction")
		s.receipts.MarkReceiptFailed(r.Context(), receiptID, err)
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"receipt_id": receiptID,
		"job_id":     job.JobID,
		"status":     store.ReceiptStatusPending,
	})
}

// ListTransactions lists transactions in a review state, defaulting to
// the pending queue the dashboard reviews.
func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.TransactionStatusPending
	}
	if status != store.TransactionStatusPending && status != store.TransactionStatusVerified {
		middleware.WriteError(w, http.StatusBadRequest, "Parameter 'status' must be 'pending' or 'verified'")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			middleware.WriteError(w, http.StatusBadRequest, "Parameter 'limit' must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := s.transactions.ListTransactionsByStatus(r.Context(), status, limit)
	if err != nil {
		s.log.Error().Err(err).Str("status", status).Msg("Transaction list query failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": rows,
		"count":        len(rows),
	})
}

// persistTransaction stores a normalized record as a pending row. Storage
// is best-effort: an insert failure is logged and reported in the
// response, never thrown away together with the extraction.
func (s *Server) persistTransaction(r *http.Request, record extract.Record, receiptID string) transactionResponse {
	identity := middleware.IdentityFromContext(r.Context())
	userEmail := ""
	if identity != nil {
		userEmail = identity.Email
	}

	row := store.NewPendingTransaction(record, userEmail, receiptID, s.now())

	resp := transactionResponse{
		TransactionID: row.TransactionID,
		Record:        record,
		Status:        store.TransactionStatusPending,
		Persisted:     true,
	}

	if err := s.transactions.InsertTransaction(r.Context(), row); err != nil {
		s.log.Warn().Err(err).Str("transaction_id", row.TransactionID).
			Msg("Transaction insert failed; returning unpersisted record")
		resp.Persisted = false
	}

	return resp
}
