package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
	"github.com/ws1993/Baby-Growth-Record/internal/handler"
	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/middleware"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
	ws "github.com/ws1993/Baby-Growth-Record/internal/websocket"
)

type Config struct {
	// OriginPatterns are extra browser origins allowed on /ws.
	OriginPatterns []string
	// RateLimit is the per-client budget of import, export and sync
	// requests per minute.
	RateLimit int
	// TrustProxy keys the rate limit on proxy headers instead of the peer.
	TrustProxy bool
	Sync       backup.Config
	AppSecret  string
}

type Server struct {
	cfg        Config
	persistent bool
	store      *store.Store
	hub        *ws.Hub
	cipher     *backup.Cipher
	syncMgr    *backup.Manager
	limiter    *middleware.RateLimiter
	memberH    *handler.MemberHandler
	recordH    *handler.RecordHandler
	settingsH  *handler.SettingsHandler
	dataH      *handler.DataHandler
	syncH      *handler.SyncHandler
	logger     *slog.Logger
}

// New opens the store over adapter and wires it to the websocket hub and the
// sync manager. When adapter is nil or unavailable the server keeps its data
// in memory and logs a warning.
func New(adapter kv.Adapter, cfg Config, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))
	storeLogger := logger.With("component", "store")

	notify := store.WithNotifier(func(c store.Change) {
		hub.Broadcast(ws.NewMessage(c.Entity, c.Action, c.ID, nil))
	})

	persistent := adapter != nil
	if !persistent {
		adapter = kv.NewMemory()
	}
	st, err := store.Open(adapter, storeLogger, notify)
	if errors.Is(err, model.ErrStorageUnavailable) {
		logger.Warn("storage unavailable, keeping data in memory only")
		persistent = false
		st, err = store.Open(kv.NewMemory(), storeLogger, notify)
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	cipher := backup.NewCipher(cfg.AppSecret)
	syncMgr := backup.NewManager(cfg.Sync, st, cipher, logger.With("component", "sync"),
		backup.WithCallback(func(s backup.Status) {
			hub.Broadcast(ws.NewMessage("sync", string(s.State), "", map[string]any{
				"direction":   s.Direction,
				"in_progress": s.InProgress,
				"error":       s.Error,
			}))
		}))

	return &Server{
		cfg:        cfg,
		persistent: persistent,
		store:      st,
		hub:        hub,
		cipher:     cipher,
		syncMgr:    syncMgr,
		limiter:    middleware.NewRateLimiter(cfg.RateLimit, time.Minute),
		memberH:    handler.NewMemberHandler(st, logger.With("component", "member")),
		recordH:    handler.NewRecordHandler(st, logger.With("component", "record")),
		settingsH:  handler.NewSettingsHandler(st, logger.With("component", "settings")),
		dataH:      handler.NewDataHandler(st, cipher, logger.With("component", "data")),
		syncH:      handler.NewSyncHandler(syncMgr, logger.With("component", "sync_handler")),
		logger:     logger,
	}, nil
}

// Store returns the entity store.
func (s *Server) Store() *store.Store {
	return s.store
}

// SyncManager returns the sync manager.
func (s *Server) SyncManager() *backup.Manager {
	return s.syncMgr
}

// Cipher returns the cipher used for exports and sync.
func (s *Server) Cipher() *backup.Cipher {
	return s.cipher
}

// Persistent reports whether data survives a restart.
func (s *Server) Persistent() bool {
	return s.persistent
}

// Start runs the background loops until ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) {
	s.syncMgr.Start(ctx)
	go s.limiter.RunCleanup(ctx)
}

// Stop waits for the auto-sync loop to exit.
func (s *Server) Stop() {
	s.syncMgr.Stop()
}

func (s *Server) Router() http.Handler {
	outer := http.NewServeMux()
	mux := http.NewServeMux()

	// Websocket connections are long-lived and bypass request logging.
	outer.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.cfg.OriginPatterns))
	outer.Handle("/", middleware.RequestLogger(s.logger.With("component", "http"))(mux))

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)
	mux.HandleFunc("GET /api/members/{id}/records", s.memberH.Records)
	mux.HandleFunc("GET /api/members/{id}/latest", s.memberH.Latest)
	mux.HandleFunc("GET /api/members/{id}/chart", s.memberH.Chart)
	mux.HandleFunc("GET /api/members/{id}/stats", s.memberH.Stats)
	mux.HandleFunc("GET /api/members/{id}/trends", s.memberH.Trends)
	mux.HandleFunc("GET /api/current-member", s.memberH.GetCurrent)
	mux.HandleFunc("PUT /api/current-member", s.memberH.SetCurrent)

	// Records
	mux.HandleFunc("GET /api/records", s.recordH.List)
	mux.HandleFunc("POST /api/records", s.recordH.Create)
	mux.HandleFunc("GET /api/records/{id}", s.recordH.Get)
	mux.HandleFunc("PUT /api/records/{id}", s.recordH.Update)
	mux.HandleFunc("DELETE /api/records/{id}", s.recordH.Delete)

	// Settings
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)
	mux.HandleFunc("PUT /api/settings/remote", s.settingsH.UpdateRemote)
	mux.HandleFunc("PUT /api/settings/passphrase", s.settingsH.SetPassphrase)

	// Export, import and sync derive keys or reach the network.
	limited := middleware.RateLimit(s.limiter, s.cfg.TrustProxy)
	mux.Handle("POST /api/export", limited(http.HandlerFunc(s.dataH.Export)))
	mux.Handle("POST /api/import", limited(http.HandlerFunc(s.dataH.Import)))
	mux.Handle("POST /api/sync/test", limited(http.HandlerFunc(s.syncH.Test)))
	mux.Handle("POST /api/sync/{direction}", limited(http.HandlerFunc(s.syncH.Run)))
	mux.HandleFunc("GET /api/sync/status", s.syncH.Status)

	return outer
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"persistent": s.persistent,
		"clients":    s.hub.ClientCount(),
	})
}
