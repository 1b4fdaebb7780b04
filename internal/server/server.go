// Package server is an in-memory stand-in for the aggregator REST backend,
// used for local development and integration tests of the client.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ButyrinIA/postboard/internal/config"
)

type Server struct {
	cfg     *config.Config
	data    *Dataset
	secret  []byte
	now     func() time.Time
	handler http.Handler
}

type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(cfg *config.Config, data *Dataset, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		data:   data,
		secret: []byte(cfg.Server.JWTSecret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	// post_id - это URL поста, слеши в нем приходят закодированными
	r.UseEncodedPath()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/image-proxy", s.imageProxy).Methods(http.MethodGet)
	api.HandleFunc("/posts", s.requireAuth(s.listPosts)).Methods(http.MethodGet)
	api.HandleFunc("/posts/export", s.requireAuth(s.exportPosts)).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.requireAuth(s.getPost)).Methods(http.MethodGet)
	api.HandleFunc("/groups", s.requireAuth(s.listGroups)).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.requireAuth(s.getStats)).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.requireAuth(s.getProfile)).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.requireAuth(s.updateProfile)).Methods(http.MethodPut)
	r.Use(logRequests)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	return otelhttp.NewHandler(c.Handler(r), "postboard-stub")
}

func (s *Server) Run() error {
	addr := ":" + s.cfg.Server.Port
	slog.Info("stub backend listening", "addr", addr, "posts", len(s.data.Posts))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start))
	})
}
