package cli

import (
	"database/sql"
	"errors"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
	"github.com/ws1993/Baby-Growth-Record/internal/database"
	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
	"github.com/ws1993/Baby-Growth-Record/internal/store"
)

// env is what one command invocation works against.
type env struct {
	db     *sql.DB
	store  *store.Store
	cipher *backup.Cipher
}

func (e *env) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// adapter opens the configured database. An empty path or a database that
// cannot be opened yields a nil adapter, meaning memory only.
func (o *RootOptions) adapter() (kv.Adapter, *sql.DB) {
	path := o.cfg.Storage.Path
	if path == "" {
		return nil, nil
	}
	db, err := database.Open(path)
	if err != nil {
		o.logger.Warn("database unavailable, keeping data in memory only", "path", path, "error", err)
		return nil, nil
	}
	return kv.NewSQLite(db), db
}

func (o *RootOptions) openEnv() (*env, error) {
	adapter, db := o.adapter()
	if adapter == nil {
		adapter = kv.NewMemory()
	}
	st, err := store.Open(adapter, o.logger.With("component", "store"))
	if errors.Is(err, model.ErrStorageUnavailable) {
		o.logger.Warn("storage unavailable, keeping data in memory only")
		st, err = store.Open(kv.NewMemory(), o.logger.With("component", "store"))
	}
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}
	return &env{db: db, store: st, cipher: backup.NewCipher(o.cfg.App.Secret)}, nil
}

func (o *RootOptions) syncConfig() backup.Config {
	return backup.Config{
		Filename: o.cfg.Sync.Filename,
		Timeout:  o.cfg.Sync.Timeout,
		Interval: o.cfg.Sync.Interval,
	}
}
