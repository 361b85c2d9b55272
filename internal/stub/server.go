package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

var errNoQuery = errors.New("request has neither user_query nor message")

// Config configures the stub server.
type Config struct {
	Fixture Fixture
	Logger  zerolog.Logger
	// AllowedOrigin enables CORS for a browser front end; empty disables it.
	AllowedOrigin string
	// Sleep replaces time.Sleep for reply delays.
	Sleep func(time.Duration)
}

// Server routes queries to canned replies.
type Server struct {
	router  *chi.Mux
	fixture Fixture
	logger  zerolog.Logger
	sleep   func(time.Duration)
}

// NewServer builds the router.
func NewServer(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		fixture: cfg.Fixture,
		logger:  cfg.Logger.With().Str("component", "stub").Logger(),
		sleep:   cfg.Sleep,
	}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)
	if cfg.AllowedOrigin != "" {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{cfg.AllowedOrigin},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/query", s.handleQuery)
	s.router.Post("/api/chat", s.handleQuery)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(started)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserQuery string `json:"user_query"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
		return
	}
	query := req.UserQuery
	if strings.TrimSpace(query) == "" {
		query = req.Message
	}
	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": errNoQuery.Error()})
		return
	}

	reply := s.fixture.Lookup(query)
	if reply.Delay > 0 {
		s.sleep(reply.Delay)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = w.Write([]byte(reply.Body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
