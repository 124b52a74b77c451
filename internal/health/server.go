// Package health exposes the read-only liveness endpoint.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type status struct {
	Status    string `json:"status"`
	Chats     int    `json:"chats"`
	Reminders int    `json:"reminders"`
}

type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// New builds the health server. The counters are read on every request so
// the endpoint always reports live values.
func New(port int, chats, reminders func() int, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status{
			Status:    "alive",
			Chats:     chats(),
			Reminders: reminders(),
		})
	})

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Health server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
