// Package handlers implements the HTTP API of the operations backend:
// finance extraction, receipt upload, odometer reading, lead triage and
// the text improvement helper.
package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpcosta/agency-ops/internal/api/middleware"
	"github.com/rpcosta/agency-ops/internal/auth"
	"github.com/rpcosta/agency-ops/internal/gcsuploader"
	"github.com/rpcosta/agency-ops/internal/jobs"
	"github.com/rpcosta/agency-ops/internal/llm"
	"github.com/rpcosta/agency-ops/internal/mailer"
	"github.com/rpcosta/agency-ops/internal/store"
)

// maxUploadSize caps receipt and odometer image uploads at 10 MB.
const maxUploadSize = 10 << 20

// Server holds the dependencies shared by every handler.
type Server struct {
	log zerolog.Logger

	chat   llm.ChatClient
	vision llm.VisionClient

	transactions store.TransactionRepository
	receipts     store.ReceiptRepository
	leads        store.LeadRepository
	odometer     store.OdometerRepository

	objects   gcsuploader.ObjectStore
	publisher jobs.Publisher
	mail      mailer.Sender

	// publicBaseURL is the externally reachable base URL used to build the
	// approve/reject links embedded in lead notification emails.
	publicBaseURL string

	now func() time.Time
}

// Deps collects the Server's dependencies for construction.
type Deps struct {
	Log zerolog.Logger

	Chat   llm.ChatClient
	Vision llm.VisionClient

	Transactions store.TransactionRepository
	Receipts     store.ReceiptRepository
	Leads        store.LeadRepository
	Odometer     store.OdometerRepository

	Objects   gcsuploader.ObjectStore
	Publisher jobs.Publisher
	Mail      mailer.Sender

	PublicBaseURL string

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewServer creates a Server from its dependencies.
func NewServer(d Deps) *Server {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		log:           d.Log,
		chat:          d.Chat,
		vision:        d.Vision,
		transactions:  d.Transactions,
		receipts:      d.Receipts,
		leads:         d.Leads,
		odometer:      d.Odometer,
		objects:       d.Objects,
		publisher:     d.Publisher,
		mail:          d.Mail,
		publicBaseURL: d.PublicBaseURL,
		now:           now,
	}
}

// Routes builds the route table. Finance endpoints require an
// authenticated identity that is also on the allow-list; trips, leads and
// text endpoints require authentication only. The lead decision endpoint
// and the health check are public: decision links are clicked from an
// email client that carries no bearer token.
func (s *Server) Routes(verifier auth.Verifier, policy auth.Policy) http.Handler {
	requireAuth := middleware.RequireAuth(verifier, s.log)
	requireAllowList := middleware.RequireAllowList(policy)

	finance := func(h http.Handler) http.Handler {
		return requireAuth(requireAllowList(h))
	}

	mux := http.NewServeMux()

	mux.Handle("/api/finance/extract-text", finance(post(s.ExtractText)))
	mux.Handle("/api/finance/extract-receipt", finance(post(s.ExtractReceipt)))
	mux.Handle("/api/finance/receipts", finance(post(s.UploadReceipt)))
	mux.Handle("/api/finance/transactions", finance(get(s.ListTransactions)))

	mux.Handle("/api/trips/read-odometer", requireAuth(post(s.ReadOdometer)))
	mux.Handle("/api/leads/analyze", requireAuth(post(s.AnalyzeLead)))
	mux.Handle("/api/leads", requireAuth(get(s.ListLeads)))
	mux.Handle("/api/text/improve", requireAuth(post(s.ImproveText)))

	mux.Handle("/api/leads/decision", get(s.LeadDecision))
	mux.HandleFunc("/health", s.Health)

	return mux
}

// Health responds to health checks.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func post(h http.HandlerFunc) http.Handler {
	return methodGate(http.MethodPost, h)
}

func get(h http.HandlerFunc) http.Handler {
	return methodGate(http.MethodGet, h)
}

func methodGate(method string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	})
}
