package http

import (
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

// botSecretHeader authenticates REST API callers.
const botSecretHeader = "x-bot-secret"

// requireBotSecret rejects REST calls without the shared secret. With no
// secret configured the whole REST surface is closed, not open.
func (s *Server) requireBotSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.BotSecret == "" {
			respondError(w, r, http.StatusServiceUnavailable, "rest_disabled", "REST API is not configured")
			return
		}
		got := r.Header.Get(botSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.config.BotSecret)) != 1 {
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs one line per request with latency and status.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Latency(time.Since(start)),
			logger.String("ip", r.RemoteAddr),
			logger.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// recoverPanics turns handler panics into 500s instead of dropped
// connections.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic recovered",
					logger.Any("panic", rec),
					logger.String("path", r.URL.Path),
					logger.String("stack", string(debug.Stack())),
				)
				respondError(w, r, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
