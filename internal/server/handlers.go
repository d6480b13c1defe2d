package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
	"git.home.luguber.info/inful/clomonitor/internal/version"
	"git.home.luguber.info/inful/clomonitor/internal/views"
)

type handlers struct {
	db    DB
	views ViewTracker
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		slog.Warn("Health check database ping failed", logfields.Error(err))
	}
	writeJSON(w, code, healthResponse{
		Status:    status,
		Version:   version.Version,
		Timestamp: time.Now().UTC(),
	})
}

func (h *handlers) project(w http.ResponseWriter, r *http.Request) {
	foundation := r.PathValue("foundation")
	project := r.PathValue("project")

	detail, err := h.db.ProjectDetail(r.Context(), foundation, project)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "project not found"})
		return
	}
	if err != nil {
		slog.Error("Loading project document",
			logfields.Foundation(foundation),
			logfields.Project(project),
			logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *handlers) trackView(w http.ResponseWriter, r *http.Request) {
	foundation := r.PathValue("foundation")
	project := r.PathValue("project")

	id, err := h.db.ProjectID(r.Context(), foundation, project)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "project not found"})
		return
	}
	if err != nil {
		slog.Error("Resolving project for view",
			logfields.Foundation(foundation),
			logfields.Project(project),
			logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if err := h.views.TrackView(id); err != nil {
		if errors.Is(err, views.ErrBufferFull) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "too many views in flight"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	foundation := r.URL.Query().Get("foundation")

	stats, err := h.db.Stats(r.Context(), foundation)
	if err != nil {
		slog.Error("Loading stats", logfields.Foundation(foundation), logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Encoding response", logfields.Error(err))
	}
}
