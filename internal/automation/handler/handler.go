// Package handler exposes the maintenance engine: trigger a run, read the
// health summary and follow the activity log.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"azadi/internal/automation"
	"azadi/internal/automation/broadcast"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/platform/httputil"
	"azadi/pkg/requestcontext"
)

const keepAliveInterval = 15 * time.Second

type Engine interface {
	Start(ctx context.Context) error
	Health() automation.SystemHealth
	Log() *broadcast.Broadcast
}

type Handler struct {
	engine    Engine
	logger    *slog.Logger
	keepAlive time.Duration
}

func New(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger, keepAlive: keepAliveInterval}
}

// Register mounts the routes under an admin router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/run", h.handleRun)
	r.Get("/health", h.handleHealth)
	r.Get("/logs", h.handleLogs)
	r.Get("/logs/stream", h.handleStream)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.engine.Start(ctx); err != nil {
		if errors.Is(err, automation.ErrAlreadyRunning) {
			err = dErrors.Wrap(err, dErrors.CodeConflict, "a maintenance run is already in progress")
		}
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "maintenance run requested", "admin", requestcontext.AdminUser(ctx))
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.engine.Health())
}

func (h *Handler) handleLogs(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.engine.Log().Snapshot())
}

// handleStream sends the full log, newest first, as a server-sent event on
// connect and after every append.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	updates := make(chan []broadcast.Entry, 1)
	unsubscribe := h.engine.Log().Subscribe(func(entries []broadcast.Entry) {
		// Keep only the latest snapshot for a slow reader.
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- entries:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entries := <-updates:
			data, err := json.Marshal(entries)
			if err != nil {
				h.logger.ErrorContext(ctx, "encode log snapshot", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: logs\ndata: %s\n\n", data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			h.logger.WarnContext(ctx, "log stream flush failed", "error", err)
			return
		}
	}
}
