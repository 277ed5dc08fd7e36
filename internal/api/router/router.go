// Package router wires the bot's HTTP surface: health, metrics, the inbound
// webhook, and a read-only transcript view for the clinic staff.
package router

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/atendeai/clinicbot/internal/transcript"
	"github.com/atendeai/clinicbot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger      *logging.Logger
	Webhook     http.Handler
	Metrics     http.Handler
	Transcripts *transcript.Store
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", handleHealth)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.Webhook != nil {
		r.Post("/webhook/whatsapp", cfg.Webhook.ServeHTTP)
	}
	if cfg.Transcripts != nil {
		r.Get("/transcripts/{contactID}", handleTranscript(cfg.Transcripts, logger))
	}
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

const defaultTranscriptLimit = 50

func handleTranscript(store *transcript.Store, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contactID := chi.URLParam(r, "contactID")

		limit := defaultTranscriptLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := store.Recent(r.Context(), contactID, limit)
		if err != nil {
			logger.Error("router: transcript read failed", "error", err, "contact", contactID)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []transcript.Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contact_id": contactID,
			"entries":    entries,
		})
	}
}

// requestLogger emits one structured log line per completed request.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = uuid.NewString()
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", reqID,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
