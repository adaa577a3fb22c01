// Package http exposes a character host over a REST API with an SSE
// event stream. Routes are declared by hand on a chi router and mirror
// the embedded OpenAPI document served at /openapi.yaml.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/host"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/motion"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

// Registry is the slice of the character host the server needs.
type Registry interface {
	Engine(name string) *avatar.Engine
	Lookup(name string) (*avatar.Engine, bool)
	Names() []string
	Remove(name string)
	Save(ctx context.Context, name string) error
	Restore(ctx context.Context, name string) error
}

// Server holds the handler state.
type Server struct {
	Hosts  Registry
	source ports.Watchable
	logger *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalogWatch enables the global SSE stream to announce catalog
// changes from the given source.
func WithCatalogWatch(src ports.Watchable) Option {
	return func(s *Server) { s.source = src }
}

// NewHandler creates the HTTP handler for a character host.
func NewHandler(hosts Registry, opts ...Option) http.Handler {
	server := &Server{
		Hosts:  hosts,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", server.SubscribeEvents)

	// Swagger UI
	r.Get("/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Route("/characters", func(r chi.Router) {
		r.Get("/", server.ListCharacters)
		r.Route("/{name}", func(r chi.Router) {
			r.Post("/", server.CreateCharacter)
			r.Delete("/", server.RemoveCharacter)
			r.Get("/status", server.GetStatus)
			r.Post("/tick", server.Tick)

			r.Get("/motions", server.GetMotions)
			r.Post("/motions", server.PlayMotion)
			r.Delete("/motions", server.StopMotions)
			r.Put("/idle", server.SetIdleMotion)

			r.Get("/expressions", server.GetSelection)
			r.Post("/expressions", server.SetExpressions)
			r.Delete("/expressions", server.ClearExpressions)
			r.Delete("/expressions/{expression}", server.RemoveExpression)

			r.Post("/emotion", server.SetEmotion)
			r.Post("/react", server.React)
			r.Post("/sequences/{sequence}", server.PlaySequence)
			r.Delete("/sequences", server.CancelSequence)
			r.Post("/gaze", server.LookAt)

			r.Post("/snapshot", server.SaveSnapshot)
			r.Post("/restore", server.RestoreSnapshot)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Avatar API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Character resolution --

// engineFor resolves the character for mutating requests, creating the
// engine on first use.
func (s *Server) engineFor(r *http.Request) (*avatar.Engine, string) {
	name := chi.URLParam(r, "name")
	return s.Hosts.Engine(name), name
}

// lookup resolves the character for read requests; unknown names are a
// 404, not an implicit create.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*avatar.Engine, string, bool) {
	name := chi.URLParam(r, "name")
	eng, ok := s.Hosts.Lookup(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown character: %s", name), http.StatusNotFound)
		return nil, name, false
	}
	return eng, name, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// -- Meta handlers --

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "avatar-http",
		"version":     strings.TrimSpace(avatar.Version),
		"api_version": apiVersion,
	})
}

// -- Character handlers --

// ListCharacters handles the GET /characters request.
func (s *Server) ListCharacters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"characters": s.Hosts.Names()})
}

// CreateCharacter handles the POST /characters/{name} request.
func (s *Server) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	eng, name := s.engineFor(r)
	s.logger.Info("character created", "character", name)
	s.writeJSON(w, http.StatusCreated, eng.Status())
}

// RemoveCharacter handles the DELETE /characters/{name} request.
func (s *Server) RemoveCharacter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.Hosts.Lookup(name); !ok {
		http.Error(w, fmt.Sprintf("unknown character: %s", name), http.StatusNotFound)
		return
	}
	s.Hosts.Remove(name)
	w.WriteHeader(http.StatusNoContent)
}

// GetStatus handles the GET /characters/{name}/status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	eng, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, eng.Status())
}

// TickRequest advances the character's virtual clock. It exists for
// deployments without a server-side ticker and for scripted tests.
type TickRequest struct {
	Delta string `json:"delta"`
}

// Tick handles the POST /characters/{name}/tick request.
func (s *Server) Tick(w http.ResponseWriter, r *http.Request) {
	var body TickRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("tick: invalid request body", "error", err)
		return
	}
	delta, err := parseDuration(body.Delta)
	if err != nil || body.Delta == "" {
		http.Error(w, "Invalid delta: expected a duration like \"100ms\"", http.StatusBadRequest)
		return
	}

	eng, _ := s.engineFor(r)
	eng.Tick(delta)
	s.writeJSON(w, http.StatusOK, eng.Status())
}

// -- Motion handlers --

// MotionRequest asks for one motion. Durations are strings in Go syntax
// ("200ms"); omitted fields inherit the catalog definition.
type MotionRequest struct {
	Group    string  `json:"group"`
	Region   string  `json:"region,omitempty"`
	Rank     string  `json:"rank,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
	FadeIn   string  `json:"fade_in,omitempty"`
	FadeOut  string  `json:"fade_out,omitempty"`
	Duration string  `json:"duration,omitempty"`
}

// PlayMotion handles the POST /characters/{name}/motions request.
func (s *Server) PlayMotion(w http.ResponseWriter, r *http.Request) {
	var body MotionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("play motion: invalid request body", "error", err)
		return
	}
	if strings.TrimSpace(body.Group) == "" {
		http.Error(w, "group is required", http.StatusBadRequest)
		return
	}

	req, err := mapMotionRequest(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid motion request: %v", err), http.StatusBadRequest)
		return
	}

	eng, name := s.engineFor(r)
	admitted := eng.RequestMotion(req)
	s.logger.Debug("motion requested", "character", name, "group", body.Group, "admitted", admitted)
	s.writeJSON(w, http.StatusOK, map[string]any{"admitted": admitted})
}

// GetMotions handles the GET /characters/{name}/motions request.
func (s *Server) GetMotions(w http.ResponseWriter, r *http.Request) {
	eng, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"motions": eng.MotionLayers()})
}

// StopMotions handles the DELETE /characters/{name}/motions request.
// Without a region it stops everything; ?immediate=true skips fade-outs.
func (s *Server) StopMotions(w http.ResponseWriter, r *http.Request) {
	eng, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	immediate := r.URL.Query().Get("immediate") == "true"
	if region := r.URL.Query().Get("region"); region != "" {
		eng.StopMotion(domain.ParseRegion(region), immediate)
	} else {
		eng.StopAllMotions(immediate)
	}
	w.WriteHeader(http.StatusNoContent)
}

// IdleRequest names the looping idle motion; empty clears it.
type IdleRequest struct {
	Group string `json:"group"`
}

// SetIdleMotion handles the PUT /characters/{name}/idle request.
func (s *Server) SetIdleMotion(w http.ResponseWriter, r *http.Request) {
	var body IdleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	eng, _ := s.engineFor(r)
	eng.SetIdleMotion(body.Group)
	w.WriteHeader(http.StatusNoContent)
}

// -- Expression handlers --

// SetExpressions handles the POST /characters/{name}/expressions request.
// The body is either one target or an array applied atomically.
func (s *Server) SetExpressions(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var list []domain.ExpressionWeight
	if err := json.Unmarshal(raw, &list); err != nil {
		var single domain.ExpressionWeight
		if err := json.Unmarshal(raw, &single); err != nil {
			http.Error(w, "Invalid expression: expected an object or an array", http.StatusBadRequest)
			return
		}
		list = []domain.ExpressionWeight{single}
	}
	for _, target := range list {
		if strings.TrimSpace(target.Name) == "" {
			http.Error(w, "expression name is required", http.StatusBadRequest)
			return
		}
	}

	eng, _ := s.engineFor(r)
	eng.SetExpressions(list)
	s.writeJSON(w, http.StatusOK, eng.Selection())
}

// GetSelection handles the GET /characters/{name}/expressions request.
func (s *Server) GetSelection(w http.ResponseWriter, r *http.Request) {
	eng, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, eng.Selection())
}

// ClearExpressions handles the DELETE /characters/{name}/expressions
// request.
func (s *Server) ClearExpressions(w http.ResponseWriter, r *http.Request) {
	eng, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	eng.ClearExpressions()
	w.WriteHeader(http.StatusNoContent)
}

// RemoveExpression handles the DELETE
// /characters/{name}/expressions/{expression} request.
func (s *Server) RemoveExpression(w http.ResponseWriter, r *http.Request) {
	eng, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	eng.RemoveExpression(chi.URLParam(r, "expression"))
	s.writeJSON(w, http.StatusOK, eng.Selection())
}

// -- Emotion handlers --

// EmotionRequest names the target emotion for a smart switch.
type EmotionRequest struct {
	Name string `json:"name"`
}

// SetEmotion handles the POST /characters/{name}/emotion request.
func (s *Server) SetEmotion(w http.ResponseWriter, r *http.Request) {
	var body EmotionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	eng, _ := s.engineFor(r)
	committed := eng.SetEmotionSmart(body.Name)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"committed": committed,
		"emotion":   eng.EmotionState(),
	})
}

// ReactRequest carries the free text to match against reaction rules.
type ReactRequest struct {
	Text string `json:"text"`
}

// React handles the POST /characters/{name}/react request.
func (s *Server) React(w http.ResponseWriter, r *http.Request) {
	var body ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	eng, name := s.engineFor(r)
	matched := eng.React(body.Text)
	resp := map[string]any{"matched": matched}
	if matched {
		resp["sequence"] = eng.Status().Sequence
	}
	s.logger.Debug("reaction", "character", name, "matched", matched)
	s.writeJSON(w, http.StatusOK, resp)
}

// PlaySequence handles the POST /characters/{name}/sequences/{sequence}
// request.
func (s *Server) PlaySequence(w http.ResponseWriter, r *http.Request) {
	eng, name := s.engineFor(r)
	seqName := chi.URLParam(r, "sequence")
	if err := eng.PlaySequence(seqName); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, fmt.Sprintf("unknown sequence: %s", seqName), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Sequence error: %v", err), http.StatusInternalServerError)
		s.logger.Error("play sequence failed", "character", name, "sequence", seqName, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sequence": seqName})
}

// CancelSequence handles the DELETE /characters/{name}/sequences request.
func (s *Server) CancelSequence(w http.ResponseWriter, r *http.Request) {
	eng, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	eng.CancelSequence()
	w.WriteHeader(http.StatusNoContent)
}

// GazeRequest is a normalized gaze target; 0,0 is straight ahead.
type GazeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LookAt handles the POST /characters/{name}/gaze request.
func (s *Server) LookAt(w http.ResponseWriter, r *http.Request) {
	var body GazeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	eng, _ := s.engineFor(r)
	eng.LookAt(body.X, body.Y)
	w.WriteHeader(http.StatusNoContent)
}

// -- Snapshot handlers --

// SaveSnapshot handles the POST /characters/{name}/snapshot request.
func (s *Server) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	_, name, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.Hosts.Save(r.Context(), name); err != nil {
		s.persistenceError(w, name, "save", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

// RestoreSnapshot handles the POST /characters/{name}/restore request.
func (s *Server) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Hosts.Restore(r.Context(), name); err != nil {
		s.persistenceError(w, name, "restore", err)
		return
	}
	eng, _ := s.engineFor(r)
	s.writeJSON(w, http.StatusOK, eng.Status())
}

func (s *Server) persistenceError(w http.ResponseWriter, name, op string, err error) {
	switch {
	case errors.Is(err, host.ErrNoStore):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrSnapshotNotFound):
		http.Error(w, fmt.Sprintf("no snapshot for character: %s", name), http.StatusNotFound)
	default:
		http.Error(w, fmt.Sprintf("Snapshot %s error: %v", op, err), http.StatusInternalServerError)
		s.logger.Error("snapshot operation failed", "op", op, "character", name, "error", err)
	}
}

// -- Helpers --

func mapMotionRequest(body MotionRequest) (motion.Request, error) {
	fadeIn, err := parseDuration(body.FadeIn)
	if err != nil {
		return motion.Request{}, fmt.Errorf("fade_in: %w", err)
	}
	fadeOut, err := parseDuration(body.FadeOut)
	if err != nil {
		return motion.Request{}, fmt.Errorf("fade_out: %w", err)
	}
	duration, err := parseDuration(body.Duration)
	if err != nil {
		return motion.Request{}, fmt.Errorf("duration: %w", err)
	}

	req := motion.Request{
		Group:    body.Group,
		Weight:   body.Weight,
		FadeIn:   fadeIn,
		FadeOut:  fadeOut,
		Duration: duration,
	}
	// Blank region and rank inherit the catalog definition.
	if body.Region != "" {
		req.Region = domain.ParseRegion(body.Region)
	}
	if body.Rank != "" {
		req.Rank = domain.ParseRank(body.Rank)
	}
	return req, nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
