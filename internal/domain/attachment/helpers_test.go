package attachment

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeRecord struct {
	fields map[string]string
	old    map[string]string
	isNew  bool
}

func newRecord(fields map[string]string) *fakeRecord {
	return &fakeRecord{fields: fields, old: map[string]string{}, isNew: true}
}

// persistedRecord mimics a row read back from the database.
func persistedRecord(fields map[string]string) *fakeRecord {
	old := make(map[string]string, len(fields))
	for k, v := range fields {
		old[k] = v
	}
	return &fakeRecord{fields: fields, old: old}
}

func (r *fakeRecord) GetField(name string) string { return r.fields[name] }
func (r *fakeRecord) SetField(name, value string) { r.fields[name] = value }
func (r *fakeRecord) IsNew() bool                 { return r.isNew }
func (r *fakeRecord) OldField(name string) string { return r.old[name] }

// recordingFS is the real filesystem with every mutation logged.
type recordingFS struct {
	mu        sync.Mutex
	ops       []string
	moveErr   func(dst string) error
	removeErr func(path string) error
}

func (f *recordingFS) log(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func (f *recordingFS) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *recordingFS) MkdirAll(dir string) error {
	f.log("mkdir " + dir)
	return os.MkdirAll(dir, 0o755)
}

func (f *recordingFS) Move(src, dst string) error {
	f.log("move " + dst)
	if f.moveErr != nil {
		if err := f.moveErr(dst); err != nil {
			return err
		}
	}
	return os.Rename(src, dst)
}

func (f *recordingFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (f *recordingFS) Remove(path string) error {
	f.log("remove " + path)
	if f.removeErr != nil {
		if err := f.removeErr(path); err != nil {
			return err
		}
	}
	return os.Remove(path)
}

type countingRecorder struct {
	committed  int
	failed     []Kind
	advisories []Kind
}

func (r *countingRecorder) Committed(string, int64)   { r.committed++ }
func (r *countingRecorder) Failed(_ string, k Kind)   { r.failed = append(r.failed, k) }
func (r *countingRecorder) Advisory(_ string, k Kind) { r.advisories = append(r.advisories, k) }

type fixture struct {
	root     string
	tempDir  string
	fs       *recordingFS
	recorder *countingRecorder
	manager  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		root:     t.TempDir(),
		tempDir:  t.TempDir(),
		fs:       &recordingFS{},
		recorder: &countingRecorder{},
	}
	resolver, err := NewPathResolver(f.root,
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	f.manager = NewManager(resolver, NewNormalizer(f.tempDir), f.fs, NewNotifier(), f.recorder, zerolog.Nop())
	return f
}

func (f *fixture) imageBinding() Binding {
	return Binding{
		Attribute:         "image",
		FilenameAttribute: "image_name",
		PathTemplate:      DefaultPathTemplate,
		Image:             true,
	}
}

func (f *fixture) fileBinding() Binding {
	return Binding{
		Attribute:    "document",
		PathTemplate: "@root/uploads/files/{date}/{random}.{extension}",
	}
}

// writeStored places a file at a stored relative path and returns its absolute path.
func (f *fixture) writeStored(t *testing.T, rel, content string) string {
	t.Helper()
	abs := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

func (f *fixture) abs(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

func (f *fixture) tempFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func upload(name, content string) *Upload {
	return &Upload{
		Filename: name,
		MimeType: "application/octet-stream",
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
