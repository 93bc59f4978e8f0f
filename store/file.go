package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/viant/afs"
	"os"
	"sync"
)

const fileMode os.FileMode = 0o600

// FileKV persists slots as a JSON document at URL. Any afs scheme is supported
// (local path, file://, mem://, ...), which makes it a lightweight way to survive
// process restarts in CLI or single-host services.
type FileKV struct {
	mu     sync.RWMutex
	URL    string
	fs     afs.Service
	values map[string]string
	loaded bool
}

type fileSnapshot struct {
	Values map[string]string `json:"values"`
}

// NewFileKV creates a KV persisted at URL
func NewFileKV(URL string) *FileKV {
	return &FileKV{URL: URL, fs: afs.New()}
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := f.ensureLoaded(ctx); err != nil {
		return "", false, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *FileKV) Put(ctx context.Context, key, value string) error {
	return f.PutAll(ctx, map[string]string{key: value})
}

func (f *FileKV) Delete(ctx context.Context, key string) error {
	return f.DeleteAll(ctx, key)
}

func (f *FileKV) PutAll(ctx context.Context, values map[string]string) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.copyValues()
	for k, v := range values {
		next[k] = v
	}
	return f.save(ctx, next)
}

func (f *FileKV) DeleteAll(ctx context.Context, keys ...string) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.copyValues()
	for _, k := range keys {
		delete(next, k)
	}
	return f.save(ctx, next)
}

// ---- persistence ----

func (f *FileKV) copyValues() map[string]string {
	ret := make(map[string]string, len(f.values))
	for k, v := range f.values {
		ret[k] = v
	}
	return ret
}

// save writes values and only then publishes them, so a failed write leaves memory and file consistent
func (f *FileKV) save(ctx context.Context, values map[string]string) error {
	data, err := json.MarshalIndent(fileSnapshot{Values: values}, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(ctx, f.URL, fileMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload %v: %w", f.URL, err)
	}
	f.values = values
	return nil
}

func (f *FileKV) ensureLoaded(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return nil
	}
	if err := f.load(ctx); err != nil {
		return err
	}
	f.loaded = true
	return nil
}

func (f *FileKV) load(ctx context.Context) error {
	f.values = map[string]string{}
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to check %v: %w", f.URL, err)
	}
	if !exists {
		return nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to download %v: %w", f.URL, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid session file %v: %w", f.URL, err)
	}
	for k, v := range snap.Values {
		f.values[k] = v
	}
	return nil
}
