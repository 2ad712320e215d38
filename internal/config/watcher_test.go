package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloads struct {
	mu    sync.Mutex
	files []*File
}

func (r *reloads) add(f *File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, f)
}

func (r *reloads) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

func (r *reloads) last() *File {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.files[len(r.files)-1]
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: []\n"), 0644))

	got := &reloads{}
	w, err := NewWatcher(path, 20*time.Millisecond, got.add)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	content := "servers:\n  - name: fs\n    type: stdio\n    command: node\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	require.Eventually(t, func() bool { return got.count() > 0 }, 3*time.Second, 10*time.Millisecond)
	require.Len(t, got.last().Servers, 1)
	assert.Equal(t, "fs", got.last().Servers[0].Name)
}

func TestWatcher_IgnoresInvalidAndUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: []\n"), 0644))

	got := &reloads{}
	w, err := NewWatcher(path, 20*time.Millisecond, got.add)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("servers: []\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("servers: [\n"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, got.count())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: []\n"), 0644))

	w, err := NewWatcher(path, 0, func(*File) {})
	require.NoError(t, err)
	assert.Equal(t, DefaultWatchDebounce, w.debounce)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
