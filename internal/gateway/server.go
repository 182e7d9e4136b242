// Package gateway serves the Telegram webhook, health pings and the manual
// task endpoints. Every inbound request doubles as a scheduler tick.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/npepeverse/pepebot/internal/channels"
	"github.com/npepeverse/pepebot/internal/channels/telegram"
	"github.com/npepeverse/pepebot/internal/config"
	"github.com/npepeverse/pepebot/internal/router"
	"github.com/npepeverse/pepebot/internal/scheduler"
)

const maxUpdateBytes = 1 << 20

// Scheduler is the part of *scheduler.Scheduler the gateway drives.
type Scheduler interface {
	Tick(ctx context.Context, now time.Time) []scheduler.Outcome
	RunNow(ctx context.Context, name string, now time.Time) (scheduler.Outcome, error)
	Status(ctx context.Context, now time.Time) []scheduler.TaskStatus
}

// MessageHandler is the part of *router.Router the gateway drives.
type MessageHandler interface {
	Handle(ctx context.Context, msg router.InboundMessage) router.Result
	HandleCallback(ctx context.Context, cb router.Callback)
}

// Server is the HTTP front of the bot.
type Server struct {
	cfg         *config.Config
	sched       Scheduler
	handler     MessageHandler
	rateLimiter *channels.RateLimiter
	now         func() time.Time

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a gateway server.
func NewServer(cfg *config.Config, sched Scheduler, handler MessageHandler) *Server {
	return &Server{
		cfg:         cfg,
		sched:       sched,
		handler:     handler,
		rateLimiter: channels.NewRateLimiter(cfg.Gateway.RateLimitRPM),
		now:         time.Now,
	}
}

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()
	if s.cfg.Telegram.Token != "" {
		mux.HandleFunc("POST "+s.cfg.WebhookPath(), s.handleWebhook)
	}
	mux.HandleFunc("GET /{$}", s.limited(s.handleIndex))
	mux.HandleFunc("GET /health", s.limited(s.handleHealth))
	mux.HandleFunc("GET /tasks", s.limited(s.taskAuth(s.handleListTasks)))
	mux.HandleFunc("POST /tasks/{name}", s.limited(s.taskAuth(s.handleRunTask)))

	s.mux = mux
	return mux
}

// Handler returns the mux wrapped with request ids.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.BuildMux())
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Gateway.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("gateway starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("gateway shutdown", "error", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

// handleWebhook receives one Telegram update. The token path and secret header
// authenticate it, and it is never rate limited: every update arrives from a
// few Telegram addresses. Anything past the header checks is answered 200 so
// Telegram never retries a delivery.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slog.With("request_id", requestID(ctx))

	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		log.Warn("security.webhook_rejected", "reason", "content_type", "content_type", r.Header.Get("Content-Type"))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if secret := s.cfg.Telegram.WebhookSecret; secret != "" {
		got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			log.Warn("security.webhook_rejected", "reason", "secret_token", "remote", clientIP(r))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	s.tick(ctx)
	if err != nil {
		log.Warn("gateway: read update failed", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	update, err := telegram.DecodeUpdate(body)
	if err != nil {
		log.Warn("gateway: malformed update", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	switch {
	case update.Message != nil:
		if msg, ok := telegram.Inbound(update); ok {
			s.handler.Handle(ctx, msg)
		}
	case update.CallbackQuery != nil:
		if cb, ok := telegram.CallbackOf(update); ok {
			s.handler.HandleCallback(ctx, cb)
		}
	default:
		log.Debug("gateway: update skipped", "update_id", update.UpdateID)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.tick(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "🐸 %s Telegram Bot is live...", s.cfg.Project.Ticker)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.tick(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tick runs due scheduled tasks inline. Failures are logged by the scheduler
// and never change the response.
func (s *Server) tick(ctx context.Context) {
	for _, o := range s.sched.Tick(ctx, s.now()) {
		slog.Debug("gateway: tick ran task", "request_id", requestID(ctx), "task", o.Task, "period", o.Period, "ok", o.Err == nil)
	}
}

// limited rejects callers over the per-IP request budget with 429.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(clientIP(r)) {
			slog.Warn("security.rate_limited", "request_id", requestID(r.Context()), "path", r.URL.Path, "remote", clientIP(r))
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// taskAuth guards the manual task endpoints with the shared task secret,
// read from X-Task-Secret or ?secret=. With no secret configured the
// endpoints are locked.
func (s *Server) taskAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		want := s.cfg.Gateway.TaskSecret
		got := r.Header.Get("X-Task-Secret")
		if got == "" {
			got = r.URL.Query().Get("secret")
		}
		if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			slog.Warn("security.task_unauthorized", "request_id", requestID(r.Context()), "path", r.URL.Path, "remote", clientIP(r))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Status(r.Context(), s.now()))
}

type runResponse struct {
	Task     string `json:"task"`
	Period   string `json:"period,omitempty"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

func (s *Server) handleRunTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	out, err := s.sched.RunNow(r.Context(), name, s.now())
	if errors.Is(err, scheduler.ErrUnknownTask) {
		writeJSON(w, http.StatusNotFound, runResponse{Task: name, Error: err.Error()})
		return
	}

	resp := runResponse{Task: name, Period: out.Period, Duration: out.Duration.String()}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	if out.PersistErr != nil {
		resp.Warning = "run not recorded: " + out.PersistErr.Error()
	}
	slog.Info("gateway: task run on demand", "request_id", requestID(r.Context()), "task", name, "period", out.Period)
	writeJSON(w, http.StatusOK, resp)
}

type ctxKey struct{}

// withRequestID tags each request with a uuid, echoed in X-Request-Id.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
