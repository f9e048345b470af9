package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

const (
	ContentTypeJSON      = "application/json"
	ContentTypeEncrypted = "application/octet-stream"
)

// ExportFilename is the suggested name of a local export written at t.
func ExportFilename(t time.Time) string {
	return "growth-data-" + t.Format(model.DateLayout) + ".json"
}

// BuildPayload wraps a snapshot in the versioned export envelope. The
// passphrase never leaves the process and credentials are masked.
func BuildPayload(snap store.Snapshot, now time.Time) model.ExportPayload {
	pub := snap.Settings.Sanitize()
	return model.ExportPayload{
		Version:    model.ExportVersion,
		ExportTime: now.UTC(),
		Members:    nonNil(snap.Members),
		Records:    nonNil(snap.Records),
		Settings:   &pub,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// EncodePayload serializes p and, when passphrase is set, encrypts the whole
// serialized envelope.
func (c *Cipher) EncodePayload(p model.ExportPayload, passphrase string) (data []byte, contentType string, err error) {
	data, err = json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("encode payload: %w", err)
	}
	if passphrase == "" {
		return data, ContentTypeJSON, nil
	}
	data, err = c.Encrypt(data, passphrase)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt payload: %w", err)
	}
	return data, ContentTypeEncrypted, nil
}

// DecodePayload reverses EncodePayload. With a passphrase the bytes must
// decrypt; without one they must be a plain JSON export.
func (c *Cipher) DecodePayload(data []byte, passphrase string) (model.ExportPayload, error) {
	var p model.ExportPayload
	if passphrase != "" {
		plain, err := c.Decrypt(data, passphrase)
		if err != nil {
			return p, err
		}
		data = plain
	} else if !looksLikeJSON(data) {
		return p, fmt.Errorf("%w: file is encrypted, a passphrase is required", model.ErrDecryption)
	}

	var env struct {
		Members json.RawMessage `json:"members"`
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return p, &model.ImportValidationError{Problems: []string{"file is not a valid export: " + err.Error()}}
	}
	var problems []string
	if !isArray(env.Members) {
		problems = append(problems, "members is missing or not an array")
	}
	if !isArray(env.Records) {
		problems = append(problems, "records is missing or not an array")
	}
	if len(problems) > 0 {
		return p, &model.ImportValidationError{Problems: problems}
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, &model.ImportValidationError{Problems: []string{"file is not a valid export: " + err.Error()}}
	}
	return p, nil
}

// looksLikeJSON tells a plain export from ciphertext. Ciphertext starts with a
// random salt and is almost never valid UTF-8, so a leading brace alone is
// not enough.
func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{' && utf8.Valid(trimmed)
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// ExportSnapshot serializes the store's current state. An empty passphrase
// produces plain JSON.
func ExportSnapshot(s *store.Store, c *Cipher, passphrase string, now time.Time) ([]byte, string, error) {
	return c.EncodePayload(BuildPayload(s.Snapshot(), now), passphrase)
}

// ImportSnapshot decodes, validates and merges data into the store. Nothing
// is merged unless the whole payload is valid.
func ImportSnapshot(s *store.Store, c *Cipher, data []byte, passphrase string) (model.ValidationReport, model.MergeResult, error) {
	p, err := c.DecodePayload(data, passphrase)
	if err != nil {
		return model.ValidationReport{Errors: problemsOf(err)}, model.MergeResult{}, err
	}
	report := Validate(p, knownMembers(s), s.Now())
	if !report.Valid {
		return report, model.MergeResult{}, &model.ImportValidationError{Problems: report.Errors}
	}
	res, err := s.Merge(p.Members, p.Records)
	if err != nil {
		return report, model.MergeResult{}, err
	}
	return report, res, nil
}

func problemsOf(err error) []string {
	var ive *model.ImportValidationError
	if errors.As(err, &ive) {
		return ive.Problems
	}
	return []string{err.Error()}
}

func knownMembers(s *store.Store) func(string) bool {
	ids := make(map[string]bool)
	for _, m := range s.ListMembers() {
		ids[m.ID] = true
	}
	return func(id string) bool { return ids[id] }
}

// Validate checks the structure of an imported payload and reports every
// problem it finds. known reports whether a member id exists locally. Birth
// dates after today are rejected.
func Validate(p model.ExportPayload, known func(id string) bool, today time.Time) model.ValidationReport {
	r := model.ValidationReport{
		Errors:   []string{},
		Warnings: []string{},
		Members:  len(p.Members),
		Records:  len(p.Records),
	}

	switch {
	case p.Version == "":
		r.Errors = append(r.Errors, "missing version")
	case p.Version != model.ExportVersion:
		r.Warnings = append(r.Warnings, fmt.Sprintf("version %s differs from %s", p.Version, model.ExportVersion))
	}
	if p.ExportTime.IsZero() {
		r.Warnings = append(r.Warnings, "missing export time")
	}

	limit := today.UTC().Format(model.DateLayout)
	members := make(map[string]bool, len(p.Members))
	for i, m := range p.Members {
		if m.ID == "" || m.Name == "" || m.BirthDate == "" {
			r.Errors = append(r.Errors, fmt.Sprintf("member %d: id, name and birthDate are required", i))
			continue
		}
		if members[m.ID] {
			r.Errors = append(r.Errors, fmt.Sprintf("member %d: duplicate id %s", i, m.ID))
		}
		members[m.ID] = true
		if birth, err := m.Birth(); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("member %d: invalid birthDate %q", i, m.BirthDate))
		} else if birth.Format(model.DateLayout) > limit {
			r.Errors = append(r.Errors, fmt.Sprintf("member %d: birthDate %s is in the future", i, m.BirthDate))
		}
		if m.Gender != model.GenderMale && m.Gender != model.GenderFemale {
			r.Errors = append(r.Errors, fmt.Sprintf("member %d: gender must be male or female, got %q", i, m.Gender))
		}
	}

	records := make(map[string]bool, len(p.Records))
	for i, rec := range p.Records {
		if rec.ID == "" || rec.MemberID == "" || rec.Date == "" {
			r.Errors = append(r.Errors, fmt.Sprintf("record %d: id, memberId and date are required", i))
			continue
		}
		if records[rec.ID] {
			r.Errors = append(r.Errors, fmt.Sprintf("record %d: duplicate id %s", i, rec.ID))
		}
		records[rec.ID] = true
		if _, err := rec.Observed(); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("record %d: invalid date %q", i, rec.Date))
		}
		if !(rec.Height > 0) || !(rec.Weight > 0) {
			r.Errors = append(r.Errors, fmt.Sprintf("record %d: height and weight must be greater than 0", i))
		}
		switch {
		case members[rec.MemberID]:
		case known != nil && known(rec.MemberID):
			r.Warnings = append(r.Warnings, fmt.Sprintf("record %d: member %s exists only locally", i, rec.MemberID))
		default:
			r.Errors = append(r.Errors, fmt.Sprintf("record %d: unknown member %s", i, rec.MemberID))
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}
