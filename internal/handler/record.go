package handler

import (
	"log/slog"
	"net/http"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

type RecordHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewRecordHandler(s *store.Store, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{store: s, logger: logger}
}

// List returns all records, newest first. ?member= narrows to one member.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("member"); id != "" {
		records, err := h.store.RecordsForMember(id)
		if err != nil {
			writeError(w, h.logger, "list records", err)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}
	writeJSON(w, http.StatusOK, h.store.ListRecords())
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetRecord(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.RecordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, "create record", err)
		return
	}
	rec, err := h.store.CreateRecord(in)
	if err != nil {
		writeError(w, h.logger, "create record", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.RecordPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, "update record", err)
		return
	}
	rec, err := h.store.UpdateRecord(r.PathValue("id"), patch)
	if err != nil {
		writeError(w, h.logger, "update record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRecord(r.PathValue("id")); err != nil {
		writeError(w, h.logger, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
