package web

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrilink/agrilink/internal/service"
)

// Base64 of a 10 MB photo plus the rest of the listing payload.
const maxBodyBytes = 15 << 20

type Server struct {
	service *service.ListingService
	cors    CORSConfig
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewServer(svc *service.ListingService, cors CORSConfig, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		cors:    cors,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/classify", s.handleClassify)
	s.mux.HandleFunc("POST /api/gemini", s.handleClassify)

	s.mux.HandleFunc("POST /api/listings", s.handleCreateListing)
	s.mux.HandleFunc("GET /api/listings/{id}", s.handleGetListing)
	s.mux.HandleFunc("DELETE /api/listings/{id}", s.handleDeleteListing)
	s.mux.HandleFunc("PATCH /api/listings/{id}/status", s.handleUpdateStatus)
	s.mux.HandleFunc("GET /api/listings/{id}/photo", s.handleGetPhoto)

	s.mux.HandleFunc("GET /api/users/{userID}/listings", s.handleListUserListings)
	s.mux.HandleFunc("GET /api/users/{userID}/portfolio", s.handlePortfolio)
	s.mux.HandleFunc("GET /api/users/{userID}/wallet", s.handleWallet)
}

// securityHeaders sets browser hardening headers for the JSON API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(corsMiddleware(s.cors, s.mux))).ServeHTTP(w, r)
}

// HTTPServer wraps s in an http.Server. The write timeout leaves room for a
// slow provider answering a classification.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func closeWithLog(c io.Closer, what string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+what, "error", err)
	}
}
