package handler

import (
	"log/slog"
	"net/http"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

type SettingsHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewSettingsHandler(s *store.Store, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{store: s, logger: logger}
}

type settingsResponse struct {
	model.PublicSettings
	PendingChanges   int  `json:"pendingChanges"`
	HasPassphrase    bool `json:"hasPassphrase"`
	RemoteConfigured bool `json:"remoteConfigured"`
	CanSync          bool `json:"canSync"`
}

func (h *SettingsHandler) response() settingsResponse {
	st := h.store.Settings()
	return settingsResponse{
		PublicSettings:   st.Sanitize(),
		PendingChanges:   st.PendingChanges,
		HasPassphrase:    st.Passphrase != "",
		RemoteConfigured: st.Remote.Configured(),
		CanSync:          st.CanSync(),
	}
}

// Get returns the settings with secrets masked.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response())
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, "update settings", err)
		return
	}
	if _, err := h.store.UpdateSettings(patch); err != nil {
		writeError(w, h.logger, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, h.response())
}

// UpdateRemote replaces the remote endpoint. A masked password ("***") keeps
// the stored one so a client can round-trip the settings it was given.
func (h *SettingsHandler) UpdateRemote(w http.ResponseWriter, r *http.Request) {
	var cfg model.RemoteConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		writeError(w, h.logger, "update remote", err)
		return
	}
	current := h.store.Settings().Remote
	if cfg.Password == "***" {
		cfg.Password = current.Password
	}
	if cfg.Username == "***" {
		cfg.Username = current.Username
	}
	if err := h.store.UpdateRemote(cfg); err != nil {
		writeError(w, h.logger, "update remote", err)
		return
	}
	writeJSON(w, http.StatusOK, h.response())
}

// SetPassphrase stores the sync passphrase. An empty passphrase clears it.
func (h *SettingsHandler) SetPassphrase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "set passphrase", err)
		return
	}
	if err := h.store.SetPassphrase(req.Passphrase); err != nil {
		writeError(w, h.logger, "set passphrase", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
