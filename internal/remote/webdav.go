package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAV keeps files under a base collection on a WebDAV server.
// gowebdav has no context support; requests are bounded by the client timeout.
type WebDAV struct {
	client *gowebdav.Client
}

func NewWebDAV(url, username, password string, timeout time.Duration) *WebDAV {
	c := gowebdav.NewClient(url, username, password)
	c.SetTimeout(timeout)
	return &WebDAV{client: c}
}

func (w *WebDAV) Get(_ context.Context, name string) ([]byte, error) {
	data, err := w.client.Read(name)
	if gowebdav.IsErrNotFound(err) {
		return nil, fmt.Errorf("get %s: %w", name, ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s from webdav: %w", name, err)
	}
	return data, nil
}

func (w *WebDAV) Put(_ context.Context, name string, data []byte) error {
	if err := w.client.Write(name, data, 0o644); err != nil {
		return fmt.Errorf("put %s to webdav: %w", name, err)
	}
	return nil
}

func (w *WebDAV) Exists(_ context.Context, name string) (bool, error) {
	_, err := w.client.Stat(name)
	if gowebdav.IsErrNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s on webdav: %w", name, err)
	}
	return true, nil
}
