package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nexustrade/nexusd/kit"
	"github.com/nexustrade/nexusd/license"
	"github.com/nexustrade/nexusd/observability"
	"github.com/nexustrade/nexusd/shield"
)

// handleActivate runs the gate chain for POST /api/activate: server
// configuration, token presence, payload, identity, then the key check. The
// config gate comes first so a misconfigured server never spends an
// identity-provider call. The whole request fails or the plan flips — there
// is no partial state beyond the provider write itself.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := shield.GetLogger(ctx)

	if !s.activator.Configured() {
		jsonErr(w, "LICENSE_KEY não configurada no servidor.", http.StatusInternalServerError)
		return
	}

	token := bearerToken(r)
	if token == "" {
		jsonErr(w, "Não autenticado.", http.StatusUnauthorized)
		return
	}

	var req struct {
		LicenseKey string `json:"licenseKey"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.LicenseKey) == "" {
		jsonErr(w, "licenseKey é obrigatório.", http.StatusBadRequest)
		return
	}

	principal, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		jsonErr(w, "Token inválido.", http.StatusUnauthorized)
		return
	}

	err = s.activator.Activate(ctx, principal, req.LicenseKey)
	switch {
	case errors.Is(err, license.ErrNotConfigured):
		jsonErr(w, "LICENSE_KEY não configurada no servidor.", http.StatusInternalServerError)
		return
	case errors.Is(err, license.ErrInvalidKey):
		s.logEvent(ctx, observability.Event{
			Type:        observability.EventActivation,
			PrincipalID: principal.ID,
			RequestID:   kit.GetRequestID(ctx),
			Detail:      "invalid key",
			Success:     false,
		})
		jsonErr(w, "Chave inválida.", http.StatusForbidden)
		return
	case err != nil:
		logger.Error("activate: plan upgrade failed", "principal", principal.ID, "error", err)
		jsonErr(w, "Erro inesperado", http.StatusInternalServerError)
		return
	}

	s.logEvent(ctx, observability.Event{
		Type:        observability.EventActivation,
		PrincipalID: principal.ID,
		RequestID:   kit.GetRequestID(ctx),
		Success:     true,
	})

	jsonOK(w, map[string]bool{"ok": true})
}
