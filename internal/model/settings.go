package model

import "time"

type RemoteDriver string

const (
	RemoteWebDAV RemoteDriver = "webdav"
	RemoteS3     RemoteDriver = "s3"
)

// RemoteConfig locates the remote file store used for sync. For WebDAV the
// credentials are Username/Password; for S3 they are the access and secret key.
type RemoteConfig struct {
	Driver   RemoteDriver `json:"driver" validate:"required,oneof=webdav s3"`
	URL      string       `json:"url" validate:"omitempty,url"`
	Username string       `json:"username"`
	Password string       `json:"password"`
	Bucket   string       `json:"bucket,omitempty"`
	Region   string       `json:"region,omitempty"`
}

// Configured reports whether the endpoint and credentials are all present.
func (c RemoteConfig) Configured() bool {
	if c.URL == "" || c.Username == "" || c.Password == "" {
		return false
	}
	if c.Driver == RemoteS3 && c.Bucket == "" {
		return false
	}
	return true
}

type Settings struct {
	Remote         RemoteConfig `json:"remote"`
	Passphrase     string       `json:"passphrase"`
	Theme          string       `json:"theme"`
	Language       string       `json:"language"`
	AutoSync       bool         `json:"autoSync"`
	LastSyncTime   *time.Time   `json:"lastSyncTime,omitempty"`
	PendingChanges int          `json:"pendingChanges"`
}

// DefaultSettings returns the settings of a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		Remote:   RemoteConfig{Driver: RemoteWebDAV},
		Theme:    "auto",
		Language: "zh-CN",
	}
}

// CanSync reports whether remote endpoint, credentials and passphrase are set.
func (s Settings) CanSync() bool {
	return s.Remote.Configured() && s.Passphrase != ""
}

// SettingsPatch carries the user-editable preferences.
type SettingsPatch struct {
	Theme    *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark auto"`
	Language *string `json:"language,omitempty" validate:"omitempty,oneof=zh-CN en-US"`
	AutoSync *bool   `json:"autoSync,omitempty"`
}

const redacted = "***"

// PublicSettings is the sanitized form of Settings written into exports.
// It never carries the passphrase, and credentials are masked.
type PublicSettings struct {
	Remote       RemoteConfig `json:"remote"`
	Theme        string       `json:"theme"`
	Language     string       `json:"language"`
	AutoSync     bool         `json:"autoSync"`
	LastSyncTime *time.Time   `json:"lastSyncTime,omitempty"`
}

// Sanitize strips secrets from the settings.
func (s Settings) Sanitize() PublicSettings {
	remote := s.Remote
	if remote.Password != "" {
		remote.Password = redacted
	}
	if remote.Driver == RemoteS3 && remote.Username != "" {
		remote.Username = redacted
	}
	return PublicSettings{
		Remote:       remote,
		Theme:        s.Theme,
		Language:     s.Language,
		AutoSync:     s.AutoSync,
		LastSyncTime: s.LastSyncTime,
	}
}
