package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ghostchat/auth"
	"ghostchat/db"
	"ghostchat/telegram"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	db        *db.DB
	config    *Config
	logger    *zap.Logger
	registry  *Registry
	typing    *TypingTracker
	metrics   *Metrics
	validator *auth.Validator
	bot       *telegram.Bot
	promReg   *prometheus.Registry
	httpSrv   *http.Server
}

type Config struct {
	Port          int
	WriteTimeout  time.Duration
	BotToken      string
	WebAppURL     string
	CORSOrigins   string
	DevAuthBypass bool
}

func New(database *db.DB, config *Config, logger *zap.Logger) *Server {
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.CORSOrigins == "" {
		config.CORSOrigins = "*"
	}

	promReg := prometheus.NewRegistry()
	metrics := NewMetrics(promReg)
	typing := NewTypingTracker()

	return &Server{
		db:        database,
		config:    config,
		logger:    logger,
		registry:  NewRegistry(typing, logger, metrics),
		typing:    typing,
		metrics:   metrics,
		validator: auth.NewValidator(config.BotToken, config.DevAuthBypass),
		bot:       telegram.NewBot(config.BotToken),
		promReg:   promReg,
	}
}

// Router wires every endpoint behind the CORS middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	api.HandleFunc("/online", s.handleOnline).Methods(http.MethodGet)
	api.HandleFunc("/auth/telegram", s.handleAuthTelegram).Methods(http.MethodPost)
	api.HandleFunc("/user/me", s.handleGetMe).Methods(http.MethodGet)
	api.HandleFunc("/user/me", s.handleUpdateMe).Methods(http.MethodPut)
	api.HandleFunc("/user/search", s.handleSearchUser).Methods(http.MethodGet)
	api.HandleFunc("/contacts/add", s.handleAddContact).Methods(http.MethodPost)
	api.HandleFunc("/contacts/{contact_anonymous_id}", s.handleRemoveContact).Methods(http.MethodDelete)
	api.HandleFunc("/contacts", s.handleGetContacts).Methods(http.MethodGet)
	api.HandleFunc("/telegram/webhook", s.handleTelegramWebhook).Methods(http.MethodPost)

	r.HandleFunc("/ws/{anonymous_id}", s.handleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))

	return s.corsMiddleware(r)
}

func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:    ":" + strconv.Itoa(s.config.Port),
		Handler: s.Router(),
	}

	s.logger.Info("ghostchat server started", zap.Int("port", s.config.Port))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown closes every live connection, then stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.CloseAll("server shutting down")
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// GetStats returns server statistics as a formatted string for the control socket.
func (s *Server) GetStats() string {
	ids := s.registry.ListLive()
	return "connections=" + strconv.Itoa(len(ids)) + ",users=" + strings.Join(ids, ";")
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin(r.Header.Get("Origin")))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if s.config.CORSOrigins == "*" {
		return "*"
	}
	for _, allowed := range strings.Split(s.config.CORSOrigins, ",") {
		if strings.TrimSpace(allowed) == origin {
			return origin
		}
	}
	return ""
}
