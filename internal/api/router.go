package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const corsMaxAge = 300

// Routes builds the API router. Only allowedOrigin may read cross-origin responses.
func (h *Handler) Routes(allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{allowedOrigin},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		MaxAge:             corsMaxAge,
		OptionsPassthrough: true,
	}))

	r.Get("/", h.home)
	r.Get("/files/{filename}", h.file)
	r.With(h.rateLimit).Post("/optimize-bus-stations", h.optimize)
	r.Options("/optimize-bus-stations", h.preflight)

	return r
}

// accessLog logs every request and counts it by method and status code.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startTime := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		h.log.InfoContext(r.Context(), "Request served",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(startTime),
		)
	})
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			h.writeError(w, r, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
