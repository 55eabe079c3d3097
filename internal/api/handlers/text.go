package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rpcosta/agency-ops/internal/api/middleware"
	"github.com/rpcosta/agency-ops/internal/extract"
	"github.com/rpcosta/agency-ops/internal/llm"
)

// ImproveText rewrites a piece of dashboard copy with better wording.
// Unlike the extraction endpoints the answer is plain prose, so the model
// output is returned as-is after trimming.
func (s *Server) ImproveText(w http.ResponseWriter, r *http.Request) {
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

	improved, err := s.chat.Complete(r.Context(), llm.ChatRequest{
		System:      extract.ImproveTextPrompt,
		User:        req.Text,
		Temperature: llm.TemperatureRewrite,
	})
	if err != nil {
		s.writeModelError(w, "ImproveText", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"improved": strings.TrimSpace(improved),
	})
}
