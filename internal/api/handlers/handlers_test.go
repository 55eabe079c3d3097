package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpcosta/agency-ops/internal/auth"
	"github.com/rpcosta/agency-ops/internal/jobs"
	"github.com/rpcosta/agency-ops/internal/llm"
	"github.com/rpcosta/agency-ops/internal/store"
)

// --- mocks ---

type mockChat struct {
	completeFunc func(ctx context.Context, req llm.ChatRequest) (string, error)
	calls        int
	lastRequest  llm.ChatRequest
}

func (m *mockChat) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	m.calls++
	m.lastRequest = req
	if m.completeFunc != nil {
		return m.completeFunc(ctx, req)
	}
	return "{}", nil
}

type mockVision struct {
	readImageFunc func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	calls         int
}

func (m *mockVision) ReadImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	m.calls++
	if m.readImageFunc != nil {
		return m.readImageFunc(ctx, prompt, image, mimeType)
	}
	return "{}", nil
}

type mockTransactions struct {
	insertFunc func(ctx context.Context, row *store.TransactionRow) error
	listFunc   func(ctx context.Context, status string, limit int) ([]*store.TransactionRow, error)
	inserted   []*store.TransactionRow
}

func (m *mockTransactions) InsertTransaction(ctx context.Context, row *store.TransactionRow) error {
	m.inserted = append(m.inserted, row)
	if m.insertFunc != nil {
		return m.insertFunc(ctx, row)
	}
	return nil
}

func (m *mockTransactions) ListTransactionsByStatus(ctx context.Context, status string, limit int) ([]*store.TransactionRow, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, status, limit)
	}
	return nil, nil
}

type mockReceipts struct {
	inserted []*store.ReceiptRow
	linked   map[string]string
	failed   []string
}

func (m *mockReceipts) InsertReceipt(ctx context.Context, row *store.ReceiptRow) error {
	m.inserted = append(m.inserted, row)
	return nil
}

func (m *mockReceipts) GetReceipt(ctx context.Context, receiptID string) (*store.ReceiptRow, error) {
	return nil, fmt.Errorf("GetReceipt: receipt %s: %w", receiptID, store.ErrNotFound)
}

func (m *mockReceipts) LinkTransaction(ctx context.Context, receiptID, transactionID string) error {
	if m.linked == nil {
		m.linked = map[string]string{}
	}
	m.linked[receiptID] = transactionID
	return nil
}

func (m *mockReceipts) MarkReceiptFailed(ctx context.Context, receiptID string, procErr error) {
	m.failed = append(m.failed, receiptID)
}

type mockLeads struct {
	getFunc        func(ctx context.Context, leadID string) (*store.LeadRow, error)
	analysisCalls  []string
	statusByLeadID map[string]string
}

func (m *mockLeads) GetLead(ctx context.Context, leadID string) (*store.LeadRow, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, leadID)
	}
	return nil, fmt.Errorf("GetLead: lead %s: %w", leadID, store.ErrNotFound)
}

func (m *mockLeads) UpdateLeadAnalysis(ctx context.Context, leadID string, score int, fit, summary string) error {
	m.analysisCalls = append(m.analysisCalls, fmt.Sprintf("%s:%d:%s", leadID, score, fit))
	return nil
}

func (m *mockLeads) UpdateLeadStatus(ctx context.Context, leadID, status string) error {
	if m.statusByLeadID == nil {
		m.statusByLeadID = map[string]string{}
	}
	m.statusByLeadID[leadID] = status
	return nil
}

func (m *mockLeads) ListLeads(ctx context.Context, limit int) ([]*store.LeadRow, error) {
	return nil, nil
}

type mockOdometer struct {
	inserted []*store.OdometerReadingRow
}

func (m *mockOdometer) InsertReading(ctx context.Context, row *store.OdometerReadingRow) error {
	m.inserted = append(m.inserted, row)
	return nil
}

type mockObjects struct {
	uploadFunc func(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	uploads    []string
}

func (m *mockObjects) UploadBytes(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	m.uploads = append(m.uploads, objectName)
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, objectName, contentType, data)
	}
	return "gs://test-bucket/" + objectName, nil
}

func (m *mockObjects) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	return nil, fmt.Errorf("Fetch: not implemented in mock")
}

func (m *mockObjects) SignedDownloadURL(ctx context.Context, objectName string) (string, error) {
	return "https://signed.example/" + objectName, nil
}

type mockPublisher struct {
	published []*jobs.ExtractReceiptJob
}

func (m *mockPublisher) PublishExtractReceipt(ctx context.Context, job *jobs.ExtractReceiptJob) error {
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockMailer struct {
	sendFunc func(ctx context.Context, to, subject, htmlBody string) error
	sent     []sentMail
}

type sentMail struct {
	to, subject, body string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, to, subject, htmlBody); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, sentMail{to, subject, htmlBody})
	return nil
}

type mockVerifier struct {
	identity *auth.Identity
	calls    int
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	m.calls++
	if token != "valid-token" || m.identity == nil {
		return nil, auth.ErrInvalidToken
	}
	return m.identity, nil
}

// --- fixture ---

type fixture struct {
	server   *Server
	handler  http.Handler
	chat     *mockChat
	vision   *mockVision
	txs      *mockTransactions
	receipts *mockReceipts
	leads    *mockLeads
	odometer *mockOdometer
	objects  *mockObjects
	jobs     *mockPublisher
	mail     *mockMailer
	verifier *mockVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		chat:     &mockChat{},
		vision:   &mockVision{},
		txs:      &mockTransactions{},
		receipts: &mockReceipts{},
		leads:    &mockLeads{},
		odometer: &mockOdometer{},
		objects:  &mockObjects{},
		jobs:     &mockPublisher{},
		mail:     &mockMailer{},
		verifier: &mockVerifier{identity: &auth.Identity{ID: "u-1", Email: "ana@agency.pt"}},
	}

	f.server = NewServer(Deps{
		Log:           zerolog.Nop(),
		Chat:          f.chat,
		Vision:        f.vision,
		Transactions:  f.txs,
		Receipts:      f.receipts,
		Leads:         f.leads,
		Odometer:      f.odometer,
		Objects:       f.objects,
		Publisher:     f.jobs,
		Mail:          f.mail,
		PublicBaseURL: "https://ops.agency.pt",
		Now:           func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
	})
	f.handler = f.server.Routes(f.verifier, auth.NewAllowList([]string{"ana@agency.pt"}))

	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func authedJSON(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer valid-token")
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authedUpload(t *testing.T, path string, data []byte, contentType string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="upload.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("creating multipart: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("writing multipart: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Authorization", "Bearer valid-token")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

// --- auth gating ---

func TestFinanceEndpoints_MissingToken(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/finance/extract-text",
		strings.NewReader(`{"text":"almoco 12 euros"}`))
	rec := f.do(req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Missing authorization header" {
		t.Errorf("error = %q", got)
	}
	if f.chat.calls != 0 {
		t.Errorf("model called %d times before auth", f.chat.calls)
	}
	if len(f.txs.inserted) != 0 {
		t.Error("transaction inserted despite missing auth")
	}
}

func TestFinanceEndpoints_InvalidToken(t *testing.T) {
	f := newFixture(t)

	req := authedJSON(http.MethodPost, "/api/finance/extract-text", `{"text":"x"}`)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := f.do(req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if f.chat.calls != 0 {
		t.Error("model called despite invalid token")
	}
}

func TestFinanceEndpoints_NotAllowListed(t *testing.T) {
	f := newFixture(t)
	f.verifier.identity = &auth.Identity{ID: "u-2", Email: "visitor@example.com"}

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-text", `{"text":"x"}`))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if f.chat.calls != 0 {
		t.Error("model called despite allow-list rejection")
	}
}

func TestTripsEndpoint_SkipsAllowList(t *testing.T) {
	f := newFixture(t)
	f.verifier.identity = &auth.Identity{ID: "u-2", Email: "driver@example.com"}
	f.vision.readImageFunc = func(_ context.Context, _ string, _ []byte, _ string) (string, error) {
		return `{"success": true, "km_reading": 88000, "confidence": 0.9}`, nil
	}

	rec := f.do(authedUpload(t, "/api/trips/read-odometer", []byte("img"), "image/jpeg"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for authenticated non-allow-listed caller", rec.Code)
	}
}

// --- finance text extraction ---

func TestExtractText_Portuguese(t *testing.T) {
	f := newFixture(t)
	f.chat.completeFunc = func(_ context.Context, _ llm.ChatRequest) (string, error) {
		return `{"tipo": "despesa", "valor": "45,50", "moeda": "EUR", "data": "2025-03-13",
			"comerciante": "Tasca do Porto", "descricao": "Almoco com cliente",
			"categoria": "refeicoes", "confianca": 0.93}`, nil
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-text",
		`{"text":"Paguei 45,50 por almoco com cliente na Tasca do Porto"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	record := body["record"].(map[string]interface{})
	if record["kind"] != "expense" {
		t.Errorf("kind = %v, want expense", record["kind"])
	}
	if record["amount"] != 45.5 {
		t.Errorf("amount = %v, want 45.5", record["amount"])
	}
	if record["category"] != "refeicoes" {
		t.Errorf("category = %v, want refeicoes", record["category"])
	}
	if record["source"] != "text" {
		t.Errorf("source = %v, want text", record["source"])
	}
	if body["persisted"] != true {
		t.Error("expected record to be persisted")
	}

	if f.chat.lastRequest.Temperature != llm.TemperatureExtraction {
		t.Errorf("temperature = %v, want %v", f.chat.lastRequest.Temperature, llm.TemperatureExtraction)
	}

	if len(f.txs.inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(f.txs.inserted))
	}
	row := f.txs.inserted[0]
	if row.Status != store.TransactionStatusPending {
		t.Errorf("row status = %q, want pending", row.Status)
	}
	if row.UserEmail != "ana@agency.pt" {
		t.Errorf("row user = %q", row.UserEmail)
	}
}

func TestExtractText_ProseAnswerFallsBack(t *testing.T) {
	f := newFixture(t)
	f.chat.completeFunc = func(_ context.Context, _ llm.ChatRequest) (string, error) {
		return "Desculpa, nao consigo ajudar com isso.", nil
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-text", `{"text":"fatura da luz"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	record := decodeBody(t, rec)["record"].(map[string]interface{})
	if record["confidence"] != 0.5 {
		t.Errorf("confidence = %v, want 0.5", record["confidence"])
	}
	if record["category"] != "other" {
		t.Errorf("category = %v, want other", record["category"])
	}
	if record["description"] != "fatura da luz" {
		t.Errorf("description = %v, want the submitted text", record["description"])
	}
}

func TestExtractText_EmptyText(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-text", `{"text":"  "}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if f.chat.calls != 0 {
		t.Error("model called for empty input")
	}
}

func TestExtractText_UpstreamErrorPropagated(t *testing.T) {
	f := newFixture(t)
	f.chat.completeFunc = func(_ context.Context, _ llm.ChatRequest) (string, error) {
		return "", &llm.UpstreamError{StatusCode: http.StatusTooManyRequests, Body: "rate limit exceeded"}
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-text", `{"text":"x"}`))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rate limit exceeded") {
		t.Errorf("body %q does not carry the upstream error", rec.Body.String())
	}
}

func TestExtractText_ProviderNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.chat.completeFunc = func(_ context.Context, _ llm.ChatRequest) (string, error) {
		return "", llm.ErrNotConfigured
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-text", `{"text":"x"}`))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not configured") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestExtractText_InsertFailureStillReturnsRecord(t *testing.T) {
	f := newFixture(t)
	f.chat.completeFunc = func(_ context.Context, _ llm.ChatRequest) (string, error) {
		return `{"tipo":"despesa","valor":10,"categoria":"software","confianca":0.9}`, nil
	}
	f.txs.insertFunc = func(_ context.Context, _ *store.TransactionRow) error {
		return fmt.Errorf("InsertTransaction: dataset unavailable")
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-text", `{"text":"licenca anual"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite insert failure", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["persisted"] != false {
		t.Error("expected persisted=false")
	}
	if body["record"].(map[string]interface{})["amount"] != 10.0 {
		t.Error("extraction result lost on insert failure")
	}
}

// --- receipt endpoints ---

func TestExtractReceipt_OCRSource(t *testing.T) {
	f := newFixture(t)
	f.vision.readImageFunc = func(_ context.Context, prompt string, _ []byte, mimeType string) (string, error) {
		if mimeType != "image/png" {
			t.Errorf("mimeType = %q", mimeType)
		}
		return `{"tipo":"despesa","valor":120.00,"comerciante":"FNAC","categoria":"equipamento","confianca":0.85}`, nil
	}

	rec := f.do(authedUpload(t, "/api/finance/extract-receipt", []byte("fake-png"), "image/png"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	record := decodeBody(t, rec)["record"].(map[string]interface{})
	if record["source"] != "ocr" {
		t.Errorf("source = %v, want ocr", record["source"])
	}
	if record["counterparty"] != "FNAC" {
		t.Errorf("counterparty = %v", record["counterparty"])
	}
}

func TestExtractReceipt_JSONBase64WithReceiptID(t *testing.T) {
	f := newFixture(t)
	f.vision.readImageFunc = func(_ context.Context, _ string, image []byte, mimeType string) (string, error) {
		if string(image) != "fake-jpeg" {
			t.Errorf("image bytes = %q", image)
		}
		if mimeType != "image/jpeg" {
			t.Errorf("mimeType = %q", mimeType)
		}
		return `{"valor": 30, "categoria": "transporte", "confianca": 0.8}`, nil
	}

	payload := fmt.Sprintf(`{"image_base64": %q, "mime_type": "image/jpeg", "receipt_id": "receipt-9"}`,
		base64.StdEncoding.EncodeToString([]byte("fake-jpeg")))
	rec := f.do(authedJSON(http.MethodPost, "/api/finance/extract-receipt", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if f.receipts.linked["receipt-9"] != body["transaction_id"] {
		t.Errorf("receipt link = %q, want %v", f.receipts.linked["receipt-9"], body["transaction_id"])
	}
	if len(f.txs.inserted) != 1 || !f.txs.inserted[0].ReceiptID.Valid {
		t.Error("transaction row missing receipt back-reference")
	}
}

func TestUploadReceipt_Enqueues(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authedUpload(t, "/api/finance/receipts", []byte("fake-jpeg"), "image/jpeg"))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["status"] != store.ReceiptStatusPending {
		t.Errorf("status = %v, want PENDING", body["status"])
	}

	if len(f.objects.uploads) != 1 || !strings.HasPrefix(f.objects.uploads[0], "receipts/") {
		t.Errorf("uploads = %v", f.objects.uploads)
	}
	if len(f.receipts.inserted) != 1 {
		t.Fatalf("receipt rows = %d", len(f.receipts.inserted))
	}
	if f.receipts.inserted[0].Status != store.ReceiptStatusPending {
		t.Errorf("receipt status = %q", f.receipts.inserted[0].Status)
	}
	if len(f.jobs.published) != 1 {
		t.Fatalf("published jobs = %d", len(f.jobs.published))
	}
	if f.jobs.published[0].ReceiptID != body["receipt_id"] {
		t.Error("job receipt id does not match response")
	}
}

func TestUploadReceipt_MissingFile(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authedJSON(http.MethodPost, "/api/finance/receipts", `{}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(f.jobs.published) != 0 {
		t.Error("job published for invalid upload")
	}
}

// --- odometer ---

func TestReadOdometer_UnreadableImage(t *testing.T) {
	const notes = "Image is too blurry to read the odometer digits"

	f := newFixture(t)
	f.vision.readImageFunc = func(_ context.Context, _ string, _ []byte, _ string) (string, error) {
		return fmt.Sprintf(`{"success": false, "km_reading": null, "confidence": 0, "notes": %q}`, notes), nil
	}

	rec := f.do(authedUpload(t, "/api/trips/read-odometer", []byte("img"), "image/jpeg"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for unreadable image", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Error("expected success=false")
	}
	if body["notes"] != notes {
		t.Errorf("notes = %q, want model notes verbatim", body["notes"])
	}
	if len(f.odometer.inserted) != 0 {
		t.Error("failed reading was persisted")
	}
}

func TestReadOdometer_Success(t *testing.T) {
	f := newFixture(t)
	f.vision.readImageFunc = func(_ context.Context, _ string, _ []byte, _ string) (string, error) {
		return `{"success": true, "km_reading": 123456, "confidence": 0.97, "notes": ""}`, nil
	}

	rec := f.do(authedUpload(t, "/api/trips/read-odometer", []byte("img"), "image/jpeg"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["km_reading"] != 123456.0 {
		t.Errorf("km_reading = %v", body["km_reading"])
	}
	if len(f.odometer.inserted) != 1 {
		t.Fatalf("readings persisted = %d", len(f.odometer.inserted))
	}
	if f.odometer.inserted[0].KMReading != 123456 {
		t.Errorf("persisted km = %v", f.odometer.inserted[0].KMReading)
	}
	if len(f.objects.uploads) != 1 || !strings.HasPrefix(f.objects.uploads[0], "odometer/") {
		t.Errorf("uploads = %v", f.objects.uploads)
	}
}

// --- leads ---

func testLead() *store.LeadRow {
	return &store.LeadRow{
		LeadID:  "lead-42",
		Name:    "Marta Nunes",
		Email:   "marta@loja-online.pt",
		Company: "Loja Online Lda",
		Message: "Precisamos de ajuda com campanhas de performance.",
		Status:  store.LeadStatusPendingApproval,
	}
}

func TestAnalyzeLead_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authedJSON(http.MethodPost, "/api/leads/analyze", `{"lead_id":"missing"}`))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if f.chat.calls != 0 {
		t.Error("model called for unknown lead")
	}
}

func TestAnalyzeLead_StoresAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.leads.getFunc = func(_ context.Context, leadID string) (*store.LeadRow, error) {
		if leadID != "lead-42" {
			return nil, fmt.Errorf("GetLead: lead %s: %w", leadID, store.ErrNotFound)
		}
		return testLead(), nil
	}
	f.chat.completeFunc = func(_ context.Context, req llm.ChatRequest) (string, error) {
		if !strings.Contains(req.User, "marta@loja-online.pt") {
			t.Errorf("prompt input missing lead email: %q", req.User)
		}
		return `{"score": 130, "fit": "HIGH", "summary": "E-commerce com orcamento claro.",
			"recommended_action": "Agendar chamada", "confidence": 0.88}`, nil
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/leads/analyze", `{"lead_id":"lead-42"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["score"] != 100.0 {
		t.Errorf("score = %v, want clamped 100", body["score"])
	}
	if body["fit"] != "high" {
		t.Errorf("fit = %v", body["fit"])
	}
	if body["notified"] != true {
		t.Error("expected notification to be sent")
	}

	if len(f.leads.analysisCalls) != 1 || f.leads.analysisCalls[0] != "lead-42:100:high" {
		t.Errorf("analysis calls = %v", f.leads.analysisCalls)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("emails sent = %d", len(f.mail.sent))
	}
	mail := f.mail.sent[0]
	if mail.to != "ana@agency.pt" {
		t.Errorf("mail to = %q", mail.to)
	}
	for _, link := range []string{
		"https://ops.agency.pt/api/leads/decision?id=lead-42&action=approve",
		"https://ops.agency.pt/api/leads/decision?id=lead-42&action=reject",
	} {
		if !strings.Contains(mail.body, link) {
			t.Errorf("mail body missing link %q", link)
		}
	}
}

func TestAnalyzeLead_MailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.leads.getFunc = func(_ context.Context, _ string) (*store.LeadRow, error) {
		return testLead(), nil
	}
	f.chat.completeFunc = func(_ context.Context, _ llm.ChatRequest) (string, error) {
		return `{"score": 40, "fit": "low", "summary": "Pedido generico.", "confidence": 0.6}`, nil
	}
	f.mail.sendFunc = func(_ context.Context, _, _, _ string) error {
		return fmt.Errorf("Send: gmail send: transient")
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/leads/analyze", `{"lead_id":"lead-42"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite mail failure", rec.Code)
	}
	if decodeBody(t, rec)["notified"] != false {
		t.Error("expected notified=false")
	}
}

func TestLeadDecision_Approve(t *testing.T) {
	f := newFixture(t)
	f.leads.getFunc = func(_ context.Context, _ string) (*store.LeadRow, error) {
		return testLead(), nil
	}

	// No Authorization header: decision links come from email clients.
	req := httptest.NewRequest(http.MethodGet, "/api/leads/decision?id=lead-42&action=approve", nil)
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if f.leads.statusByLeadID["lead-42"] != store.LeadStatusApproved {
		t.Errorf("status = %q, want approved", f.leads.statusByLeadID["lead-42"])
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "window.close()") {
		t.Error("decision page does not close itself")
	}
}

func TestLeadDecision_UnknownLead(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/leads/decision?id=ghost&action=reject", nil)
	rec := f.do(req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLeadDecision_InvalidAction(t *testing.T) {
	f := newFixture(t)
	f.leads.getFunc = func(_ context.Context, _ string) (*store.LeadRow, error) {
		return testLead(), nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/leads/decision?id=lead-42&action=delete", nil)
	rec := f.do(req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(f.leads.statusByLeadID) != 0 {
		t.Error("status mutated on invalid action")
	}
}

// --- text improvement ---

func TestImproveText(t *testing.T) {
	f := newFixture(t)
	f.chat.completeFunc = func(_ context.Context, req llm.ChatRequest) (string, error) {
		return "  Texto melhorado.\n", nil
	}

	rec := f.do(authedJSON(http.MethodPost, "/api/text/improve", `{"text":"texto a melhorar"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["improved"]; got != "Texto melhorado." {
		t.Errorf("improved = %q", got)
	}
	if f.chat.lastRequest.Temperature != llm.TemperatureRewrite {
		t.Errorf("temperature = %v, want %v", f.chat.lastRequest.Temperature, llm.TemperatureRewrite)
	}
}

// --- listing / misc ---

func TestListTransactions_InvalidStatus(t *testing.T) {
	f := newFixture(t)

	req := authedJSON(http.MethodGet, "/api/finance/transactions?status=archived", "")
	rec := f.do(req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListTransactions_DefaultsToPending(t *testing.T) {
	f := newFixture(t)
	var gotStatus string
	var gotLimit int
	f.txs.listFunc = func(_ context.Context, status string, limit int) ([]*store.TransactionRow, error) {
		gotStatus, gotLimit = status, limit
		return nil, nil
	}

	rec := f.do(authedJSON(http.MethodGet, "/api/finance/transactions", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotStatus != store.TransactionStatusPending || gotLimit != 50 {
		t.Errorf("query = (%q, %d), want (pending, 50)", gotStatus, gotLimit)
	}
}

func TestMethodGate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authedJSON(http.MethodGet, "/api/finance/extract-text", ""))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
