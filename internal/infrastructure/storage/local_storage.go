package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"jan-server/services/attachment-api/internal/config"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid file path")
)

// LocalStorage is the filesystem rooted at the configured storage root.
// It promotes staged uploads and serves committed artifacts.
type LocalStorage struct {
	root string
	log  zerolog.Logger
}

// NewLocalStorage creates the storage root if needed.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	root := strings.TrimSpace(cfg.StorageRoot)
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("storage root must be absolute, got %q", root)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	logger.Info().Str("path", root).Msg("local storage initialized")
	return &LocalStorage{root: root, log: logger}, nil
}

func (l *LocalStorage) Root() string { return l.root }

func (l *LocalStorage) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Move renames src to dst, copying across devices when a rename is impossible.
func (l *LocalStorage) Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move file: %w", err)
	}

	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := os.Remove(src); err != nil {
		l.log.Warn().Err(err).Str("path", src).Msg("failed to remove staged file after copy")
	}
	l.log.Debug().Str("dst", dst).Msg("file copied across devices")
	return nil
}

func (l *LocalStorage) Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (l *LocalStorage) Remove(p string) error {
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Object is an opened stored file.
type Object struct {
	io.ReadSeekCloser
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Open opens the artifact stored at the relative path rel.
func (l *LocalStorage) Open(ctx context.Context, rel string) (*Object, error) {
	full, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}

	contentType, err := detectContentType(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	l.log.Debug().
		Str("key", rel).
		Str("content_type", contentType).
		Msg("file opened from local storage")

	return &Object{
		ReadSeekCloser: file,
		Name:           info.Name(),
		ContentType:    contentType,
		Size:           info.Size(),
		ModTime:        info.ModTime(),
	}, nil
}

// Health checks the storage root is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	testFile := filepath.Join(l.root, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

func (l *LocalStorage) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" || strings.ContainsRune(rel, 0) {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean("/" + filepath.ToSlash(rel))
	if cleaned == "/" {
		return "", ErrInvalidPath
	}
	full := filepath.Join(l.root, filepath.FromSlash(cleaned))
	inside, err := filepath.Rel(l.root, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func detectContentType(file *os.File) (string, error) {
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return mtype.String(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
