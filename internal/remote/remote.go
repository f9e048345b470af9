// Package remote stores whole files by name on a remote endpoint. Sync uses
// one well-known file per dataset, so the protocol is get, put and exists.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// ErrNotExist is returned by Get when the named file is absent.
var ErrNotExist = errors.New("remote file does not exist")

type FileStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Exists(ctx context.Context, name string) (bool, error)
}

// New builds the file store for cfg. timeout bounds every request.
func New(cfg model.RemoteConfig, timeout time.Duration) (FileStore, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: remote endpoint and credentials are required", model.ErrValidation)
	}
	switch cfg.Driver {
	case model.RemoteWebDAV, "":
		return NewWebDAV(cfg.URL, cfg.Username, cfg.Password, timeout), nil
	case model.RemoteS3:
		return NewS3(S3Config{
			Endpoint:  cfg.URL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.Username,
			SecretKey: cfg.Password,
		}, timeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown remote driver %q", model.ErrValidation, cfg.Driver)
	}
}
