package api

import (
	"net/http"

	"github.com/nexustrade/nexusd/history"
	"github.com/nexustrade/nexusd/shield"
)

// historyLimit matches the dashboard: the ten most recent verdicts.
const historyLimit = 10

// handleHistory serves GET /api/history. Auth-gated but not plan-gated:
// free-tier users can review past analyses, they just cannot create new ones.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := bearerToken(r)
	if token == "" {
		jsonErr(w, "Não autenticado.", http.StatusUnauthorized)
		return
	}

	principal, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		jsonErr(w, "Token inválido.", http.StatusUnauthorized)
		return
	}

	if s.history == nil {
		jsonOK(w, []history.Item{})
		return
	}

	items, err := s.history.List(ctx, principal.ID, historyLimit)
	if err != nil {
		shield.GetLogger(ctx).Error("history: list failed", "principal", principal.ID, "error", err)
		jsonErr(w, "Erro inesperado", http.StatusInternalServerError)
		return
	}
	jsonOK(w, items)
}
