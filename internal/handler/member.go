package handler

import (
	"log/slog"
	"net/http"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

type MemberHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewMemberHandler(s *store.Store, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{store: s, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListMembers())
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.GetMember(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get member", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.MemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, "create member", err)
		return
	}
	m, err := h.store.CreateMember(in)
	if err != nil {
		writeError(w, h.logger, "create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.MemberPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, "update member", err)
		return
	}
	m, err := h.store.UpdateMember(r.PathValue("id"), patch)
	if err != nil {
		writeError(w, h.logger, "update member", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Delete removes the member and all of its records.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.DeleteMember(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "delete member", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deletedRecords": n})
}

func (h *MemberHandler) Records(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.RecordsForMember(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "list member records", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Latest returns the newest record, or 204 when the member has none.
func (h *MemberHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := h.store.LatestRecord(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get latest record", err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *MemberHandler) Chart(w http.ResponseWriter, r *http.Request) {
	points, err := h.store.ChartSeries(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "build chart series", err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *MemberHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.MemberStats(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get member stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *MemberHandler) Trends(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.RecordStats(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get record trends", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetCurrent returns the selected member, or 204 when none is selected.
func (h *MemberHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	m, ok := h.store.CurrentMember()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// SetCurrent selects a member. An empty id clears the selection.
func (h *MemberHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "select member", err)
		return
	}
	if err := h.store.SetCurrentMember(req.ID); err != nil {
		writeError(w, h.logger, "select member", err)
		return
	}
	h.GetCurrent(w, r)
}
