package model

import "time"

// ExportVersion is the schema version tag written into every export.
const ExportVersion = "1.0.0"

// ExportPayload is the versioned envelope used for file export and sync.
type ExportPayload struct {
	Version    string          `json:"version"`
	ExportTime time.Time       `json:"exportTime"`
	Members    []Member        `json:"members"`
	Records    []Record        `json:"records"`
	Settings   *PublicSettings `json:"settings,omitempty"`
}

// ValidationReport is the outcome of validating an imported payload.
type ValidationReport struct {
	Valid    bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Members  int      `json:"members"`
	Records  int      `json:"records"`
}

// MergeResult counts what a merge changed.
type MergeResult struct {
	MembersAdded    int `json:"membersAdded"`
	MembersReplaced int `json:"membersReplaced"`
	MembersKept     int `json:"membersKept"`
	RecordsAdded    int `json:"recordsAdded"`
	RecordsReplaced int `json:"recordsReplaced"`
	RecordsKept     int `json:"recordsKept"`
}

// Changed reports whether the merge touched local state.
func (r MergeResult) Changed() bool {
	return r.MembersAdded+r.MembersReplaced+r.RecordsAdded+r.RecordsReplaced > 0
}
