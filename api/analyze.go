package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/nexustrade/nexusd/analyzer"
	"github.com/nexustrade/nexusd/identity"
	"github.com/nexustrade/nexusd/kit"
	"github.com/nexustrade/nexusd/observability"
	"github.com/nexustrade/nexusd/shield"
)

// handleAnalyze runs the gate chain for POST /api/analyze. Order matters:
// identity and plan are checked before the body is even parsed, so provider
// quota is never spent on non-paying or anonymous requests.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := shield.GetLogger(ctx)

	token := bearerToken(r)
	if token == "" {
		jsonErr(w, "Não autenticado.", http.StatusUnauthorized)
		return
	}

	if s.model == nil {
		jsonErr(w, "GEMINI_API_KEY não configurada no servidor.", http.StatusInternalServerError)
		return
	}

	principal, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		jsonErr(w, "Token inválido.", http.StatusUnauthorized)
		return
	}

	if principal.Plan != identity.PlanPro {
		jsonErr(w, "Acesso negado. Plano PRO necessário.", http.StatusForbidden)
		return
	}

	var req struct {
		Base64Image string `json:"base64Image"`
		MimeType    string `json:"mimeType"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Base64Image == "" || req.MimeType == "" {
		jsonErr(w, "Parâmetros inválidos: base64Image e mimeType são obrigatórios.", http.StatusBadRequest)
		return
	}

	stripped, msg, code := validateImagePayload(req.Base64Image, req.MimeType, s.cfg.MaxBase64Chars)
	if code != 0 {
		jsonErr(w, msg, code)
		return
	}

	image, err := base64.StdEncoding.DecodeString(stripped)
	if err != nil {
		jsonErr(w, "base64Image inválido.", http.StatusBadRequest)
		return
	}

	result, err := s.model.AnalyzeChart(ctx, image, req.MimeType)
	if err != nil {
		logger.Error("analyze: model call failed", "error", err)
		if errors.Is(err, analyzer.ErrUpstream) {
			jsonErr(w, "Resposta inválida da IA. Tente novamente.", http.StatusBadGateway)
			return
		}
		jsonErr(w, "Erro inesperado", http.StatusInternalServerError)
		return
	}

	// The model's own flag is not trusted as the sole gate: anything short of
	// a confirmed source-platform chart is replaced by the canned rejection.
	if !result.IsSourcePlatform {
		result = analyzer.Rejection()
		s.logEvent(ctx, observability.Event{
			Type:        observability.EventAnalysisRejected,
			PrincipalID: principal.ID,
			RequestID:   kit.GetRequestID(ctx),
			Success:     true,
		})
		jsonOK(w, result)
		return
	}

	imageURL := ""
	if url, err := s.charts.Upload(ctx, principal.ID, image, req.MimeType); err != nil {
		logger.Warn("analyze: chart upload failed", "error", err)
	} else {
		imageURL = url
	}

	if s.history != nil {
		if _, err := s.history.Add(ctx, principal.ID, imageURL, result); err != nil {
			logger.Warn("analyze: history write failed", "error", err)
		}
	}

	s.logEvent(ctx, observability.Event{
		Type:        observability.EventAnalysis,
		PrincipalID: principal.ID,
		RequestID:   kit.GetRequestID(ctx),
		Detail:      string(result.Signal),
		Success:     true,
	})

	jsonOK(w, result)
}

// logEvent records a business event when the logger is wired. The client IP
// resolved by shield.RequestID is stamped here so every event carries it.
func (s *Server) logEvent(ctx context.Context, e observability.Event) {
	if s.events != nil {
		e.ClientIP = kit.GetClientIP(ctx)
		s.events.Log(ctx, e)
	}
}
