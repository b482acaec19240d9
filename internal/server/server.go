// Package server holds the HTTP plumbing shared by the display surface:
// JSON responses, error-returning handlers and access logging.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	krerrs "github.com/jdholdren/krisinfo/internal/errors"
	"github.com/jdholdren/krisinfo/logger"
)

type (
	// Server is an HTTP server whose routes may return errors.
	Server struct {
		http.Server

		Router ErrRouter
	}

	// Config holds all of the different options for making a
	// server.
	Config struct {
		Port int
		// Origin allowed to read the API from a browser. Empty disables CORS.
		CORSOrigin string
	}
)

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

func NewServer(name string, cfg Config) *Server {
	r := ErrRouter{Router: mux.NewRouter()}
	r.Use(accessLogMiddleware(name))

	var h http.Handler = r
	if cfg.CORSOrigin != "" {
		h = handlers.CORS(
			handlers.AllowedOrigins([]string{cfg.CORSOrigin}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		)(h)
	}
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)

	return &Server{
		Server: http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler:      h,
		},
		Router: r,
	}
}

// Wraps each call with an access log and tags its context with a request id.
func accessLogMiddleware(serverName string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.Ctx(r.Context(),
				slog.String("server", serverName),
				slog.String("request_id", uuid.NewString()),
			)
			r = r.WithContext(ctx)

			slog.DebugContext(ctx, "request received", "method", r.Method, "path", r.URL.Path)
			start := time.Now()

			writer := &respCodeWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(writer, r)

			slog.InfoContext(ctx, "request completed",
				"method", r.Method,
				"url", r.URL.String(),
				"duration", time.Since(start),
				"status_code", writer.code,
			)
		})
	}
}

// To trap the response status code for logging later.
type respCodeWriter struct {
	http.ResponseWriter
	code int
}

func (w *respCodeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// HandlerFuncE is a modified type of [http.HandlerFunc] that returns an error.
type HandlerFuncE func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFuncE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}

	// Either it's already a structured error, or coerce it to one
	kErr := &krerrs.Error{}
	if !errors.As(err, &kErr) {
		slog.ErrorContext(r.Context(), "unstructured handler error", "error", err)
		kErr = krerrs.E(http.StatusInternalServerError, "internal server error")
	}

	if err := WriteJSON(w, kErr.Status, kErr); err != nil {
		slog.ErrorContext(r.Context(), "error writing response", "error", err)
	}
}

// ErrRouter is a newtype around a mux router that allows attaching handlers that return errors.
type ErrRouter struct {
	*mux.Router
}

func (r ErrRouter) HandleFuncE(path string, f HandlerFuncE) *mux.Route {
	return r.Handle(path, f)
}
