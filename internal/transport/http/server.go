package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	channelService "github.com/subgate-bot/subgate/internal/modules/channel/service"
	"github.com/subgate-bot/subgate/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// Server exposes a small operational surface: liveness and the set of
// channels currently enforced
type Server struct {
	cfg            *config.Config
	channelService *channelService.Service
	logger         *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, channelService *channelService.Service) *Server {
	return &Server{
		cfg:            cfg,
		channelService: channelService,
		logger:         slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /channels", s.handleChannels)

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Ops server starting", "addr", addr)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.channelService.ListActive(r.Context())
	if err != nil {
		s.logger.Error("Error listing channels", "error", err)
		http.Error(w, "Failed to list channels", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(channels); err != nil {
		s.logger.Error("Error encoding channels", "error", err)
	}
}
