// Package httpapi exposes the reminder service over REST.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !allowsAnyOrigin(allowedOrigins),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/subjects", func(r chi.Router) {
			r.Post("/", h.RegisterSubject)
			r.Get("/{subjectID}", h.GetSubject)
			r.Post("/{subjectID}/seed", h.SeedSubject)
			r.Get("/{subjectID}/reminders", h.ListReminders)
			r.Post("/{subjectID}/reminders", h.CreateReminder)
			r.Get("/{subjectID}/milestone", h.CurrentMilestone)
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/{id}", h.GetReminder)
			r.Put("/{id}", h.UpdateReminder)
			r.Delete("/{id}", h.DeleteReminder)
			r.Post("/{id}/complete", h.CompleteReminder)
			r.Get("/{id}/range", h.ClassifyReminder)
		})
	})

	return r
}

// allowsAnyOrigin reports a wildcard entry. Credentials are only shared with
// an explicit origin list.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// requestLogger logs one line per request through logrus.
func requestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("HTTP request")
		})
	}
}
