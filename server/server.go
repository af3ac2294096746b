// Package server exposes CV generation over HTTP for the homepage's
// "download CV" button.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ByLCY/scholarcv/config"
	"github.com/ByLCY/scholarcv/generator"
	"github.com/ByLCY/scholarcv/layout"
)

// Server serves generated CVs.
type Server struct {
	cfg        config.Server
	gen        *generator.Generator
	router     chi.Router
	httpServer *http.Server
}

// New creates a server around gen.
func New(cfg config.Server, gen *generator.Generator) *Server {
	s := &Server{cfg: cfg, gen: gen}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-CV-Warnings"},
		MaxAge:         300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/cv.pdf", s.handlePDF)
	r.Route("/cv", func(r chi.Router) {
		r.Get("/layout.json", s.handleLayout)
		r.Get("/inspect", s.handleInspect)
	})
	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start listens on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Printf("scholarcv server listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) (*generator.Output, bool) {
	out, err := s.gen.Generate(r.Context(), generator.Request{Lang: r.URL.Query().Get("lang")})
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if len(out.Warnings) > 0 {
		w.Header().Set("X-CV-Warnings", strconv.Itoa(len(out.Warnings)))
		for _, warning := range out.Warnings {
			log.Printf("server: %s", warning)
		}
	}
	return out, true
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	out, ok := s.generate(w, r)
	if !ok {
		return
	}
	disposition := "inline"
	if d := r.URL.Query().Get("download"); d == "1" || d == "true" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.PDF)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(out.PDF)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	out, ok := s.generate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := layout.EncodeDebugJSON(w, out.Result); err != nil {
		log.Printf("server: encode layout: %v", err)
	}
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	rep, err := s.gen.Inspect(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, generator.ErrBusy):
		w.Header().Set("Retry-After", "1")
		status = http.StatusTooManyRequests
	case errors.Is(err, generator.ErrUnsupportedLanguage):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
