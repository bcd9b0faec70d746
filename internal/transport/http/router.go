// Package http is the read-only admin surface: health, runtime stats and
// room occupancy. The wire protocol does not pass through here.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/verse-labs/presence-server/internal/metrics"
)

// StatsSource is the slice of the registry the admin surface reads.
type StatsSource interface {
	Len() int
	RoomCounts() map[string]int
}

func NewRouter(reg StatsSource, m *metrics.Metrics, wsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if wsHandler != nil {
		r.Get("/ws", wsHandler.ServeHTTP)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatsResponse{
			Sessions: reg.Len(),
			Rooms:    len(reg.RoomCounts()),
			Metrics:  m.Snapshot(),
		})
	})

	r.Get("/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, RoomsResponse{Rooms: reg.RoomCounts()})
	})

	return r
}

type StatsResponse struct {
	Sessions int              `json:"sessions"`
	Rooms    int              `json:"rooms"`
	Metrics  map[string]int64 `json:"metrics"`
}

type RoomsResponse struct {
	Rooms map[string]int `json:"rooms"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
