package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rpcosta/agency-ops/internal/api/middleware"
	"github.com/rpcosta/agency-ops/internal/extract"
	"github.com/rpcosta/agency-ops/internal/llm"
	"github.com/rpcosta/agency-ops/internal/mailer"
	"github.com/rpcosta/agency-ops/internal/store"
)

// AnalyzeLead runs AI triage on an inbound lead, stores the result and
// notifies the team by email with one-click approve/reject links. The
// email is best-effort: a send failure does not undo the analysis.
func (s *Server) AnalyzeLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeadID string `json:"lead_id"`

		// Optional overrides; used when the caller has fresher details
		// than the stored row (e.g. the form was just submitted).
		LeadName    string `json:"lead_name"`
		LeadEmail   string `json:"lead_email"`
		LeadCompany string `json:"lead_company"`
		LeadMessage string `json:"lead_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.LeadID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Field 'lead_id' is required")
		return
	}

	lead, err := s.leads.GetLead(r.Context(), req.LeadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Lead not found")
			return
		}
		s.log.Error().Err(err).Str("lead_id", req.LeadID).Msg("Lead lookup failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load lead")
		return
	}

	if req.LeadName != "" {
		lead.Name = req.LeadName
	}
	if req.LeadEmail != "" {
		lead.Email = req.LeadEmail
	}
	if req.LeadCompany != "" {
		lead.Company = req.LeadCompany
	}
	if req.LeadMessage != "" {
		lead.Message = req.LeadMessage
	}

	raw, err := s.chat.Complete(r.Context(), llm.ChatRequest{
		System:      extract.LeadAnalysisPrompt,
		User:        leadPromptInput(lead),
		Temperature: llm.TemperatureExtraction,
	})
	if err != nil {
		s.writeModelError(w, "AnalyzeLead", err)
		return
	}

	analysis := extract.NormalizeLeadAnalysis(raw)

	if err := s.leads.UpdateLeadAnalysis(r.Context(), lead.LeadID, analysis.Score, analysis.Fit, analysis.Summary); err != nil {
		s.log.Warn().Err(err).Str("lead_id", lead.LeadID).Msg("Lead analysis persist failed")
	}

	notified := s.sendLeadNotification(r, lead, analysis)

	middleware.WriteJSON(w, http.StatusOK, struct {
		LeadID string `json:"lead_id"`
		extract.LeadAnalysis
		Notified bool `json:"notified"`
	}{LeadID: lead.LeadID, LeadAnalysis: analysis, Notified: notified})
}

// ListLeads lists leads for the dashboard, newest first.
func (s *Server) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			middleware.WriteError(w, http.StatusBadRequest, "Parameter 'limit' must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := s.leads.ListLeads(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Lead list query failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list leads")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leads": rows,
		"count": len(rows),
	})
}

// LeadDecision records an approve/reject decision from an email link and
// answers with a tiny HTML page that closes itself. Unauthenticated: the
// link is clicked from an email client that carries no bearer token, and
// the lead id is the capability.
func (s *Server) LeadDecision(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("id")
	action := r.URL.Query().Get("action")

	if leadID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Parameter 'id' is required")
		return
	}

	var status string
	switch action {
	case "approve":
		status = store.LeadStatusApproved
	case "reject":
		status = store.LeadStatusRejected
	default:
		middleware.WriteError(w, http.StatusBadRequest, "Parameter 'action' must be 'approve' or 'reject'")
		return
	}

	lead, err := s.leads.GetLead(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Lead not found")
			return
		}
		s.log.Error().Err(err).Str("lead_id", leadID).Msg("Lead lookup failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load lead")
		return
	}

	if err := s.leads.UpdateLeadStatus(r.Context(), lead.LeadID, status); err != nil {
		s.log.Error().Err(err).Str("lead_id", lead.LeadID).Str("status", status).
			Msg("Lead decision persist failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record decision")
		return
	}

	s.log.Info().Str("lead_id", lead.LeadID).Str("status", status).Msg("Lead decision recorded")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, decisionPage, html.EscapeString(lead.Name), html.EscapeString(status))
}

// decisionPage is the response to a decision link click. It shows a short
// confirmation and closes the tab the email client opened.
const decisionPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Lead decision</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<p>Lead <strong>%s</strong> marked as <strong>%s</strong>.</p>
<p>You can close this tab.</p>
<script>setTimeout(function () { window.close(); }, 1500);</script>
</body>
</html>
`

// sendLeadNotification emails the team about an analyzed lead. Returns
// whether the email went out; failures (including an unconfigured mailer)
// are logged, not surfaced.
func (s *Server) sendLeadNotification(r *http.Request, lead *store.LeadRow, analysis extract.LeadAnalysis) bool {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil || identity.Email == "" {
		s.log.Warn().Str("lead_id", lead.LeadID).Msg("No recipient for lead notification")
		return false
	}

	approveURL := s.decisionURL(lead.LeadID, "approve")
	rejectURL := s.decisionURL(lead.LeadID, "reject")

	subject := fmt.Sprintf("Lead pending approval: %s (%s fit, score %d)", lead.Name, analysis.Fit, analysis.Score)
	body := fmt.Sprintf(leadEmailBody,
		html.EscapeString(lead.Name),
		html.EscapeString(lead.Email),
		html.EscapeString(lead.Company),
		html.EscapeString(analysis.Summary),
		analysis.Score,
		html.EscapeString(analysis.Fit),
		approveURL,
		rejectURL,
	)

	if err := s.mail.Send(r.Context(), identity.Email, subject, body); err != nil {
		if errors.Is(err, mailer.ErrNotConfigured) {
			s.log.Warn().Str("lead_id", lead.LeadID).Msg("Mailer not configured; skipping notification")
		} else {
			s.log.Error().Err(err).Str("lead_id", lead.LeadID).Msg("Lead notification send failed")
		}
		return false
	}

	return true
}

const leadEmailBody = `<h2>New lead analyzed</h2>
<p><strong>%s</strong> &lt;%s&gt; %s</p>
<p>%s</p>
<p>Score: <strong>%d</strong> &middot; Fit: <strong>%s</strong></p>
<p>
<a href="%s" style="padding:10px 20px;background:#16a34a;color:#fff;text-decoration:none;border-radius:6px;">Approve</a>
&nbsp;
<a href="%s" style="padding:10px 20px;background:#dc2626;color:#fff;text-decoration:none;border-radius:6px;">Reject</a>
</p>
`

func (s *Server) decisionURL(leadID, action string) string {
	return fmt.Sprintf("%s/api/leads/decision?id=%s&action=%s",
		strings.TrimRight(s.publicBaseURL, "/"), url.QueryEscape(leadID), action)
}

func leadPromptInput(lead *store.LeadRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	if lead.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", lead.Company)
	}
	fmt.Fprintf(&b, "Message: %s\n", lead.Message)
	return b.String()
}
