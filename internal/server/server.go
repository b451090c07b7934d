// Package server exposes the HTTP API: interactive chat, the orchestration
// entry point the cron scheduler hits, and pending-action resolution.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/autonomy"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/provider"
	"github.com/stewardhq/steward/internal/review"
	"github.com/stewardhq/steward/internal/store"
	"github.com/stewardhq/steward/internal/trajectory"
	"github.com/stewardhq/steward/internal/workflow"
)

const chatSystemPrompt = "You are Steward, a property-management assistant chatting with " +
	"the landlord. Use your tools to answer questions and carry out requests. Actions " +
	"beyond the landlord's autonomy settings are held for their explicit approval; when " +
	"that happens, explain what is waiting and why."

// Server wires the HTTP handlers to the engine.
type Server struct {
	st        *store.Store
	loop      *agent.Loop
	gate      *autonomy.Gate
	router    provider.Router
	processor *events.Processor
	reviews   *review.Scheduler
	advancer  *workflow.Advancer
	recorder  *trajectory.Recorder
	notifier  *notify.Notifier
	log       *slog.Logger

	bearerToken string
	tokenUsers  map[string]string
	cronSecret  string
}

// Config carries the server's auth material. TokenUsers maps each bearer
// token to the user it acts for; BearerToken is a single-user fallback that
// resolves to "owner".
type Config struct {
	BearerToken string
	TokenUsers  map[string]string
	CronSecret  string
}

// New builds the server.
func New(st *store.Store, loop *agent.Loop, gate *autonomy.Gate, router provider.Router,
	processor *events.Processor, reviews *review.Scheduler, advancer *workflow.Advancer,
	recorder *trajectory.Recorder, notifier *notify.Notifier, log *slog.Logger, cfg Config) *Server {
	return &Server{
		st: st, loop: loop, gate: gate, router: router,
		processor: processor, reviews: reviews, advancer: advancer,
		recorder: recorder, notifier: notifier, log: log,
		bearerToken: cfg.BearerToken, tokenUsers: cfg.TokenUsers, cronSecret: cfg.CronSecret,
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", s.requireBearer(s.handleChat))
	mux.HandleFunc("POST /api/v1/orchestrate", s.requireCronSecret(s.handleOrchestrate))
	mux.HandleFunc("POST /api/v1/actions/{id}/resolve", s.requireBearer(s.handleResolve))
	mux.HandleFunc("GET /api/v1/actions", s.requireBearer(s.handleListActions))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Serve runs the HTTP server until ctx is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

type ctxKey int

const userKey ctxKey = 0

// requireBearer authenticates the request and resolves the token to its user.
// The body never chooses the identity; the credential does.
func (s *Server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		userID, ok := s.resolveToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, userID)))
	}
}

func (s *Server) resolveToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	if userID, ok := s.tokenUsers[token]; ok {
		return userID, true
	}
	if s.bearerToken != "" && token == s.bearerToken {
		return "owner", true
	}
	return "", false
}

func requestUser(r *http.Request) string {
	userID, _ := r.Context().Value(userKey).(string)
	return userID
}

func (s *Server) requireCronSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Cron-Secret") != s.cronSecret || s.cronSecret == "" {
			writeError(w, http.StatusUnauthorized, "invalid or missing cron secret")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
