package handler

import (
	"log/slog"
	"net/http"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
)

type SyncHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewSyncHandler(m *backup.Manager, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{manager: m, logger: logger}
}

// Run performs one sync in the direction named by the path.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	d, err := backup.ParseDirection(r.PathValue("direction"))
	if err != nil {
		writeError(w, h.logger, "sync", err)
		return
	}
	res, err := h.manager.Sync(r.Context(), d)
	if err != nil {
		writeError(w, h.logger, "sync", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Statuses())
}

func (h *SyncHandler) Test(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.TestConnection(r.Context()); err != nil {
		writeError(w, h.logger, "test connection", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
