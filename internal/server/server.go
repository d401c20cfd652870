package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/catalog"
	"github.com/jonathan/jobni/internal/chat"
	"github.com/jonathan/jobni/internal/config"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/events"
	"github.com/jonathan/jobni/internal/identity"
	"github.com/jonathan/jobni/internal/notify"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/ratings"
	"github.com/jonathan/jobni/internal/realtime"
	"github.com/jonathan/jobni/internal/reports"
	"github.com/jonathan/jobni/internal/server/middleware"
	"github.com/jonathan/jobni/internal/server/ratelimit"
	"github.com/jonathan/jobni/internal/types"
	"github.com/jonathan/jobni/internal/workflow"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// Config holds server configuration
type Config struct {
	Addr            string
	CORSOrigins     []string
	NotifyLocale    string
	ShutdownTimeout time.Duration
	JWT             *config.JWTConfig
	Passwords       *config.PasswordConfig
	RateLimit       *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	cfg        Config
	store      db.Store
	log        logrus.FieldLogger
	limiter    *ratelimit.Limiter
	hub        *realtime.Hub
	jwt        *JWTService
	upgrader   websocket.Upgrader

	users    *identity.Directory
	jobs     *catalog.Catalog
	workflow *workflow.Engine
	ratings  *ratings.Service
	notes    *notify.Sink
	chat     *chat.Service
	reports  *reports.Service
}

// New wires the domain services over store and builds the HTTP handler.
func New(cfg Config, store db.Store, publisher events.Publisher, log logrus.FieldLogger) (*Server, error) {
	if cfg.JWT == nil || cfg.Passwords == nil {
		return nil, fmt.Errorf("server config requires JWT and password settings")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		log:     log,
		limiter: ratelimit.NewLimiter(cfg.RateLimit),
		hub:     realtime.NewHub(),
		jwt:     NewJWTService(cfg.JWT),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.allowedOrigin,
	}

	s.users = identity.NewDirectory(store, cfg.Passwords, s.jwt, log)
	s.jobs = catalog.New(store, log)
	s.notes = notify.NewSink(store, s.hub, log)
	s.chat = chat.NewService(store, s.hub, publisher, log)
	s.workflow = workflow.NewEngine(store, s.notes, s.chat, notify.NewMessages(cfg.NotifyLocale), publisher, log)
	s.ratings = ratings.NewService(store, s.users, publisher, log)
	s.reports = reports.NewService(store, log)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Streaming handlers lift this deadline for their own connections.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the full middleware-wrapped router.
func (s *Server) Handler() http.Handler {
	authed := middleware.AuthMiddleware(s.jwt.AsTokenValidator(), s)
	stream := middleware.StreamAuthMiddleware(s.jwt.AsTokenValidator(), s)
	auth := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())

	// Identity
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /api/auth/me", auth(s.handleGetMe))
	mux.Handle("PUT /api/auth/password", auth(s.handleUpdatePassword))

	// Job catalog
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.Handle("POST /api/jobs", auth(s.handleCreateJob))
	mux.Handle("PUT /api/jobs/{id}", auth(s.handleUpdateJob))
	mux.Handle("DELETE /api/jobs/{id}", auth(s.handleDeleteJob))
	mux.Handle("GET /api/saved-jobs", auth(s.handleListSavedJobs))
	mux.Handle("POST /api/saved-jobs/{job_id}", auth(s.handleSaveJob))
	mux.Handle("DELETE /api/saved-jobs/{job_id}", auth(s.handleUnsaveJob))

	// Application workflow
	mux.Handle("POST /api/applications", auth(s.handleSubmitApplication))
	mux.Handle("GET /api/applications", auth(s.handleListApplications))
	mux.Handle("GET /api/applications/job/{job_id}", auth(s.handleListJobApplications))
	mux.Handle("PUT /api/applications/{id}", auth(s.handleUpdateApplicationStatus))

	// Ratings
	mux.Handle("POST /api/ratings", auth(s.handleCreateRating))
	mux.HandleFunc("GET /api/ratings/user/{user_id}", s.handleListUserRatings)

	// Notifications
	mux.Handle("GET /api/notifications", auth(s.handleListNotifications))
	mux.Handle("GET /api/notifications/unread-count", auth(s.handleUnreadCount))
	mux.Handle("GET /api/notifications/stream", stream(http.HandlerFunc(s.handleNotificationStream)))
	mux.Handle("PUT /api/notifications/read-all", auth(s.handleMarkAllRead))
	mux.Handle("PUT /api/notifications/{id}/read", auth(s.handleMarkRead))

	// Conversations
	mux.Handle("GET /api/conversations", auth(s.handleListConversations))
	mux.Handle("GET /api/conversations/{id}/messages", auth(s.handleListMessages))
	mux.Handle("POST /api/conversations/{id}/messages", auth(s.handleSendMessage))
	mux.Handle("GET /api/conversations/{id}/ws", stream(http.HandlerFunc(s.handleConversationSocket)))

	// Admin and reports
	mux.Handle("GET /api/admin/stats", auth(s.handleAdminStats))
	mux.Handle("GET /api/admin/users", auth(s.handleListUsers))
	mux.Handle("DELETE /api/admin/users/{id}", auth(s.handleDeleteUser))
	mux.Handle("GET /api/reports/stats", auth(s.handleUserStats))
	mux.Handle("GET /api/reports/invoice/{application_id}", auth(s.handleInvoice))

	return s.withRequestID(s.withLogging(observability.InstrumentHandler(s.withCORS(s.withRateLimit(mux)))))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("server starting")
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// ResolveCaller loads the live user behind a token subject.
// This implements the middleware.CallerResolver interface.
func (s *Server) ResolveCaller(ctx context.Context, userID uuid.UUID) (types.Caller, error) {
	u, err := s.users.FindByID(ctx, userID)
	if apperr.IsNotFound(err) {
		return types.Caller{}, middleware.ErrUnknownUser
	}
	if err != nil {
		return types.Caller{}, err
	}
	return u.Caller(), nil
}

// withRequestID ensures every request carries an X-Request-ID and echoes it.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := observability.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		requestLogger(r, s.log).WithFields(logrus.Fields{
			"status":      rec.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("request completed")
	})
}

// withCORS adds CORS headers for allowed origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	wildcard := slices.Contains(s.cfg.CORSOrigins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case wildcard:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.cfg.CORSOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowedOrigin is the WebSocket origin check. Requests without an Origin
// header come from non-browser clients and are allowed.
func (s *Server) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.CORSOrigins, "*") || slices.Contains(s.cfg.CORSOrigins, origin)
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		requestLogger(r, s.log).WithError(err).Warn("health check failed")
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"detail":    "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	requestLogger(r, s.log).WithField("limit", info.Limit).Warn("rate limit exceeded")
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
