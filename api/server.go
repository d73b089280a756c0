// Package api exposes the nexusd HTTP surface: chart analysis, license
// activation, and analysis history. Handlers gate strictly in order — rate
// limit, method, token, plan, payload — so no external call is ever spent on
// a request that would fail a cheaper check.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexustrade/nexusd/analyzer"
	"github.com/nexustrade/nexusd/chartstore"
	"github.com/nexustrade/nexusd/config"
	"github.com/nexustrade/nexusd/history"
	"github.com/nexustrade/nexusd/identity"
	"github.com/nexustrade/nexusd/license"
	"github.com/nexustrade/nexusd/observability"
	"github.com/nexustrade/nexusd/shield"
)

// maxRequestBody is the outer transport bound. The real payload ceiling is
// enforced on the base64 field; this only stops grossly oversized bodies
// before JSON decoding buffers them.
const maxRequestBody = 16 << 20

// Server wires the handlers to their collaborators. All fields are injected;
// nothing reads ambient state.
type Server struct {
	cfg       *config.Config
	limiter   *shield.Limiter
	resolver  identity.Resolver
	model     analyzer.ModelClient // nil when GEMINI_API_KEY is absent
	activator *license.Activator
	history   *history.Store // nil disables history
	charts    chartstore.Uploader
	events    *observability.EventLogger // nil disables event logging
}

// New assembles a server. resolver and activator are required; model,
// history, and events may be nil, charts may be the NopUploader.
func New(cfg *config.Config, limiter *shield.Limiter, resolver identity.Resolver,
	model analyzer.ModelClient, activator *license.Activator,
	hist *history.Store, charts chartstore.Uploader, events *observability.EventLogger) *Server {
	if charts == nil {
		charts = chartstore.NopUploader{}
	}
	return &Server{
		cfg:       cfg,
		limiter:   limiter,
		resolver:  resolver,
		model:     model,
		activator: activator,
		history:   hist,
		charts:    charts,
		events:    events,
	}
}

// Routes builds the router with the shield stack applied to every response,
// including 404s and 405s.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(shield.APIHeaders)
	r.Use(shield.RequestID)
	r.Use(shield.MaxJSONBody(maxRequestBody))

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, "Not found", http.StatusNotFound)
	})

	analyzeRule := s.cfg.Rule("analyze")
	activateRule := s.cfg.Rule("activate")
	historyRule := s.cfg.Rule("history")

	r.With(s.limiter.Middleware("analyze", analyzeRule.MaxRequests, analyzeRule.Window())).
		Post("/api/analyze", s.handleAnalyze)
	r.With(s.limiter.Middleware("activate", activateRule.MaxRequests, activateRule.Window())).
		Post("/api/activate", s.handleActivate)
	r.With(s.limiter.Middleware("history", historyRule.MaxRequests, historyRule.Window())).
		Get("/api/history", s.handleHistory)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		jsonOK(w, map[string]string{"status": "ok"})
	})

	return r
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decodeJSON parses the request body, distinguishing the transport size cap
// (413) from malformed JSON (400).
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, "Imagem muito grande para análise. Envie um print menor.", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonErr(w, "JSON inválido no corpo da requisição.", http.StatusBadRequest)
		return false
	}
	return true
}
