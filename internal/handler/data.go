package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

// PassphraseHeader carries the file passphrase on import.
const PassphraseHeader = "X-Passphrase"

// DataHandler serves local file export and import.
type DataHandler struct {
	store  *store.Store
	cipher *backup.Cipher
	logger *slog.Logger
	now    func() time.Time
}

func NewDataHandler(s *store.Store, c *backup.Cipher, logger *slog.Logger) *DataHandler {
	return &DataHandler{store: s, cipher: c, logger: logger, now: time.Now}
}

// Export streams the current state as a downloadable file. The optional
// passphrase in the body encrypts it.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, h.logger, "export data", err)
			return
		}
	}
	now := h.now()
	data, contentType, err := backup.ExportSnapshot(h.store, h.cipher, req.Passphrase, now)
	if err != nil {
		writeError(w, h.logger, "export data", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.ExportFilename(now)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type importResponse struct {
	Report model.ValidationReport `json:"report"`
	Merge  model.MergeResult      `json:"merge"`
}

// Import validates and merges an uploaded export file given as the raw body.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, "import data", fmt.Errorf("%w: read body: %v", model.ErrValidation, err))
		return
	}
	if len(data) == 0 {
		writeError(w, h.logger, "import data", fmt.Errorf("%w: empty file", model.ErrValidation))
		return
	}
	report, merge, err := backup.ImportSnapshot(h.store, h.cipher, data, r.Header.Get(PassphraseHeader))
	if err != nil {
		writeError(w, h.logger, "import data", err)
		return
	}
	h.logger.Info("import complete", "members_added", merge.MembersAdded, "records_added", merge.RecordsAdded,
		"warnings", len(report.Warnings))
	writeJSON(w, http.StatusOK, importResponse{Report: report, Merge: merge})
}
