package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dutchblitz/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// NewRouter exposes session discovery over HTTP and gameplay over websockets.
//
//	GET    /health
//	GET    /sessions              list sessions with their labels
//	POST   /sessions              create a session
//	POST   /sessions/quick        join target: best waiting session or a new one
//	GET    /sessions/{id}         current snapshot
//	DELETE /sessions/{id}         stop a session
//	GET    /sessions/{id}/ws      play; ?player=<id>, generated when absent
func NewRouter(h *Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, h.sessions.List())
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			a := h.sessions.Create()
			writeJSON(w, http.StatusCreated, session.Info{ID: a.ID(), Label: a.Label()})
		})
		r.Post("/quick", func(w http.ResponseWriter, r *http.Request) {
			a := h.sessions.QuickMatch()
			writeJSON(w, http.StatusOK, session.Info{ID: a.ID(), Label: a.Label()})
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				a, ok := h.lookup(w, r)
				if !ok {
					return
				}
				snap, err := a.Snapshot(r.Context())
				if err != nil {
					writeError(w, http.StatusServiceUnavailable, err)
					return
				}
				writeJSON(w, http.StatusOK, snap)
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if err := h.sessions.Remove(chi.URLParam(r, "id")); err != nil {
					writeError(w, http.StatusNotFound, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
			r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
				a, ok := h.lookup(w, r)
				if !ok {
					return
				}
				player := r.URL.Query().Get("player")
				if player == "" {
					player = uuid.NewString()
				}
				h.ServeWS(w, r, a, player)
			})
		})
	})
	return r
}

func (h *Hub) lookup(w http.ResponseWriter, r *http.Request) (*session.Actor, bool) {
	a, err := h.sessions.Get(chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrUnknownSession) {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return a, true
}

func requestLogger(logger runtime.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(map[string]interface{}{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
			}).Debug("http request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
