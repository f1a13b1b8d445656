package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/voiceify/internal/handler/synthesis"
	"github.com/zhouzirui/voiceify/internal/metrics"
	middlewarePkg "github.com/zhouzirui/voiceify/internal/middleware"
)

// NewRouter wires the synthesis gateway routes.
func NewRouter(synthHandler *synthesis.Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	synthHandler.RegisterRoutes(r)

	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	return r
}
