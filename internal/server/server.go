// Package server runs the weekly report Lambda handler behind a local HTTP
// server for development.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spiffcs/repobot/internal/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// LambdaHandler is an API Gateway proxy handler.
type LambdaHandler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Config holds server configuration.
type Config struct {
	Addr string
	// HandlerTimeout bounds one handler invocation.
	HandlerTimeout time.Duration
}

// Server serves the handler at /lambda and a rendered report at /report.
type Server struct {
	cfg        Config
	handler    LambdaHandler
	router     chi.Router
	httpServer *http.Server
	markdown   goldmark.Markdown
}

// New creates a Server.
func New(cfg Config, handler LambdaHandler) *Server {
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:      cfg,
		handler:  handler,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * cfg.HandlerTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.HandlerTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.HandleFunc("/lambda", s.handleLambda)
	r.Get("/report", s.handleReport)

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// invoke passes r to the handler the way API Gateway would: headers and the raw body as text.
func (s *Server) invoke(r *http.Request) (events.APIGatewayProxyResponse, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("failed to read request body: %w", err)
	}
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	return s.handler(r.Context(), events.APIGatewayProxyRequest{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Body:       string(body),
	})
}

func (s *Server) handleLambda(w http.ResponseWriter, r *http.Request) {
	resp, err := s.invoke(r)
	if err != nil {
		log.Error("handler failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.invoke(r)
	if err != nil {
		log.Error("handler failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if resp.StatusCode != http.StatusOK {
		http.Error(w, "report generation failed", resp.StatusCode)
		return
	}

	if r.URL.Query().Get("format") != "html" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, resp.Body)
		return
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(resp.Body), &buf); err != nil {
		http.Error(w, fmt.Sprintf("failed to render report: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Weekly updates</title></head><body>\n%s</body></html>\n", buf.String())
}

// Start listens on the configured address until Shutdown is called. It
// returns nil once the server has been shut down, even if that happened
// before Start.
func (s *Server) Start() error {
	log.Info("dev server listening", "addr", s.cfg.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
