package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rpcosta/agency-ops/internal/api/middleware"
	"github.com/rpcosta/agency-ops/internal/llm"
)

// writeModelError maps an upstream AI error onto an HTTP response. A
// missing API key is an operator problem; a non-2xx upstream answer is
// passed through with its status and body so the dashboard can show what
// the provider actually said.
func (s *Server) writeModelError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, llm.ErrNotConfigured) {
		s.log.Error().Str("op", op).Msg("AI provider credentials missing")
		middleware.WriteError(w, http.StatusInternalServerError, "AI provider is not configured")
		return
	}

	if ue, ok := llm.AsUpstreamError(err); ok {
		s.log.Error().Str("op", op).Int("upstream_status", ue.StatusCode).Str("body", ue.Body).
			Msg("AI provider rejected request")
		middleware.WriteError(w, ue.StatusCode, fmt.Sprintf("AI provider error: %s", ue.Body))
		return
	}

	s.log.Error().Str("op", op).Err(err).Msg("AI provider call failed")
	middleware.WriteError(w, http.StatusBadGateway, "AI provider is unreachable")
}
