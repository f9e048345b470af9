package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/remote"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

// Direction is the way data moves in a sync.
type Direction string

const (
	Upload   Direction = "upload"
	Download Direction = "download"
)

// ParseDirection accepts "upload" or "download".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Upload, Download:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown sync direction %q", model.ErrValidation, s)
}

// State represents the sync state of one direction.
type State string

const (
	StateIdle         State = "idle"
	StatePreparing    State = "preparing"
	StateTransmitting State = "transmitting"
	StateCompleting   State = "completing"
	StateFailed       State = "failed"
)

// Status holds the current state of one sync direction.
type Status struct {
	Direction  Direction  `json:"direction"`
	State      State      `json:"state"`
	LastSync   *time.Time `json:"lastSync,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"inProgress"`
}

// StatusCallback is called whenever a sync state changes.
type StatusCallback func(Status)

// Result describes a completed sync.
type Result struct {
	Direction Direction `json:"direction"`
	At        time.Time `json:"at"`
	Bytes     int       `json:"bytes"`
	// Empty is set on download when the remote file does not exist yet.
	Empty  bool                    `json:"empty,omitempty"`
	Report *model.ValidationReport `json:"report,omitempty"`
	Merge  *model.MergeResult      `json:"merge,omitempty"`
}

// Config holds sync manager configuration.
type Config struct {
	Filename string
	Timeout  time.Duration
	// Interval is how often the auto-sync loop checks for pending changes.
	Interval time.Duration
}

// Dialer opens the remote file store described by the user's settings.
type Dialer func(cfg model.RemoteConfig) (remote.FileStore, error)

// Manager runs encrypted uploads and downloads of the store against a remote
// file store. Each direction runs at most one sync at a time.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   map[Direction]Status
	callback StatusCallback

	store  *store.Store
	cipher *Cipher
	dial   Dialer
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Manager)

func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dial = d }
}

func WithCallback(cb StatusCallback) Option {
	return func(m *Manager) { m.callback = cb }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a sync manager over s.
func NewManager(cfg Config, s *store.Store, c *Cipher, logger *slog.Logger, opts ...Option) *Manager {
	if cfg.Filename == "" {
		cfg.Filename = "growth-data.json"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	m := &Manager{
		cfg:    cfg,
		store:  s,
		cipher: c,
		logger: logger,
		now:    time.Now,
		status: make(map[Direction]Status),
	}
	m.dial = func(rc model.RemoteConfig) (remote.FileStore, error) {
		return remote.New(rc, m.cfg.Timeout)
	}
	for _, opt := range opts {
		opt(m)
	}
	last := s.Settings().LastSyncTime
	for _, d := range []Direction{Upload, Download} {
		m.status[d] = Status{Direction: d, State: StateIdle, LastSync: last}
	}
	return m
}

// Status returns the current status of direction d.
func (m *Manager) Status(d Direction) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status[d]
}

// Statuses returns the status of both directions.
func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return []Status{m.status[Upload], m.status[Download]}
}

// begin moves d from idle (or failed) to preparing. It fails fast when a sync
// in that direction is already running.
func (m *Manager) begin(d Direction) error {
	m.mu.Lock()
	st := m.status[d]
	if st.InProgress {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", d, model.ErrSyncInProgress)
	}
	st.State = StatePreparing
	st.InProgress = true
	st.Error = ""
	m.status[d] = st
	m.mu.Unlock()
	m.notify(st)
	return nil
}

func (m *Manager) transition(d Direction, state State) {
	m.mu.Lock()
	st := m.status[d]
	st.State = state
	m.status[d] = st
	m.mu.Unlock()
	m.logger.Debug("sync state", "direction", d, "state", state)
	m.notify(st)
}

// finish ends the sync in d. A nil err returns to idle and records at as the
// last sync time.
func (m *Manager) finish(d Direction, at time.Time, err error) {
	m.mu.Lock()
	st := m.status[d]
	st.InProgress = false
	if err != nil {
		st.State = StateFailed
		st.Error = err.Error()
	} else {
		st.State = StateIdle
		st.LastSync = &at
	}
	m.status[d] = st
	m.mu.Unlock()
	m.notify(st)
}

func (m *Manager) notify(st Status) {
	if m.callback != nil {
		m.callback(st)
	}
}

// Sync runs one sync in direction d.
func (m *Manager) Sync(ctx context.Context, d Direction) (Result, error) {
	switch d {
	case Upload:
		return m.Upload(ctx)
	case Download:
		return m.Download(ctx)
	}
	return Result{}, fmt.Errorf("%w: unknown sync direction %q", model.ErrValidation, d)
}

func (m *Manager) prepare() (store.Snapshot, remote.FileStore, error) {
	snap := m.store.Snapshot()
	if !snap.Settings.CanSync() {
		return snap, nil, fmt.Errorf("%w: remote endpoint, credentials and passphrase are required", model.ErrValidation)
	}
	fs, err := m.dial(snap.Settings.Remote)
	if err != nil {
		return snap, nil, err
	}
	return snap, fs, nil
}

// Upload encrypts the current state and writes it to the remote file. The
// last sync time and pending counter change only after the remote write
// succeeds.
func (m *Manager) Upload(ctx context.Context) (Result, error) {
	if err := m.begin(Upload); err != nil {
		return Result{}, err
	}
	start := m.now()
	res, err := m.upload(ctx)
	m.observe(Upload, start, res.Bytes, err)
	m.finish(Upload, res.At, err)
	return res, err
}

func (m *Manager) upload(ctx context.Context) (Result, error) {
	res := Result{Direction: Upload}

	snap, fs, err := m.prepare()
	if err != nil {
		return res, err
	}
	data, _, err := m.cipher.EncodePayload(BuildPayload(snap, m.now()), snap.Settings.Passphrase)
	if err != nil {
		return res, err
	}

	m.transition(Upload, StateTransmitting)
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	if err := fs.Put(ctx, m.cfg.Filename, data); err != nil {
		return res, fmt.Errorf("%w: upload %s: %v", model.ErrSync, m.cfg.Filename, err)
	}

	m.transition(Upload, StateCompleting)
	res.At = m.now().UTC()
	res.Bytes = len(data)
	if err := m.store.MarkSynced(res.At, snap.Pending); err != nil {
		return res, err
	}
	m.logger.Info("upload complete", "file", m.cfg.Filename, "bytes", res.Bytes, "members", len(snap.Members), "records", len(snap.Records))
	return res, nil
}

// Download fetches the remote file, validates it and merges it into the
// store. A missing remote file yields an empty result.
func (m *Manager) Download(ctx context.Context) (Result, error) {
	if err := m.begin(Download); err != nil {
		return Result{}, err
	}
	start := m.now()
	res, err := m.download(ctx)
	m.observe(Download, start, res.Bytes, err)
	m.finish(Download, res.At, err)
	return res, err
}

func (m *Manager) download(ctx context.Context) (Result, error) {
	res := Result{Direction: Download}

	snap, fs, err := m.prepare()
	if err != nil {
		return res, err
	}

	m.transition(Download, StateTransmitting)
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	data, err := fs.Get(ctx, m.cfg.Filename)
	if errors.Is(err, remote.ErrNotExist) {
		m.transition(Download, StateCompleting)
		res.At = m.now().UTC()
		res.Empty = true
		m.logger.Info("remote file not found, nothing to download", "file", m.cfg.Filename)
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%w: download %s: %v", model.ErrSync, m.cfg.Filename, err)
	}
	res.Bytes = len(data)

	m.transition(Download, StateCompleting)
	report, merge, err := ImportSnapshot(m.store, m.cipher, data, snap.Settings.Passphrase)
	res.Report = &report
	if err != nil {
		return res, err
	}
	res.Merge = &merge
	res.At = m.now().UTC()
	if err := m.store.MarkSynced(res.At, 0); err != nil {
		return res, err
	}
	m.logger.Info("download complete", "file", m.cfg.Filename, "bytes", res.Bytes,
		"members_added", merge.MembersAdded, "records_added", merge.RecordsAdded)
	return res, nil
}

func (m *Manager) observe(d Direction, start time.Time, size int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		m.logger.Error("sync failed", "direction", d, "error", err)
	} else {
		syncPayloadBytes.WithLabelValues(string(d)).Set(float64(size))
		lastSyncTimestamp.Set(float64(m.now().Unix()))
	}
	syncOperationsTotal.WithLabelValues(string(d), status).Inc()
	syncDurationHistogram.WithLabelValues(string(d), status).Observe(m.now().Sub(start).Seconds())
}

// TestConnection checks that the configured remote answers. It does not need
// a passphrase.
func (m *Manager) TestConnection(ctx context.Context) error {
	settings := m.store.Settings()
	fs, err := m.dial(settings.Remote)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	if _, err := fs.Exists(ctx, m.cfg.Filename); err != nil {
		return fmt.Errorf("%w: test connection: %v", model.ErrSync, err)
	}
	return nil
}

// Start begins the auto-sync loop. Every interval it uploads when auto sync
// is enabled, sync is configured and changes are pending.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cfg.Interval <= 0 || m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkAutoSync(ctx)
			}
		}
	}()
}

// Stop gracefully stops the auto-sync loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) checkAutoSync(ctx context.Context) {
	settings := m.store.Settings()
	if !settings.AutoSync || !settings.CanSync() || settings.PendingChanges == 0 {
		return
	}
	if _, err := m.Upload(ctx); err != nil && !errors.Is(err, model.ErrSyncInProgress) {
		m.logger.Warn("auto sync failed", "error", err)
	}
}
