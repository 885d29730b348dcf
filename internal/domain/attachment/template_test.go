package attachment

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExpandsPlaceholders(t *testing.T) {
	root := t.TempDir()
	resolver, err := NewPathResolver(root,
		WithClock(func() time.Time { return time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC) }),
		WithTokenSource(func() string { return "01hx5z6kq3r8m4t2v7w9y0abcd" }),
	)
	require.NoError(t, err)

	tests := []struct {
		name     string
		template string
		source   string
		want     string
	}{
		{
			name:     "default template",
			template: DefaultPathTemplate,
			source:   "Holiday.JPG",
			want:     filepath.Join(root, "uploads", "20240305", "01hx5z6kq3r8m4t2v7w9y0abcd.jpg"),
		},
		{
			name:     "placeholders in any order",
			template: "@root/{extension}/{random}-{date}.{extension}",
			source:   "scan.Pdf",
			want:     filepath.Join(root, "pdf", "01hx5z6kq3r8m4t2v7w9y0abcd-20240305.pdf"),
		},
		{
			name:     "template without alias is rooted",
			template: "media/{date}/{random}.{extension}",
			source:   "a.png",
			want:     filepath.Join(root, "media", "20240305", "01hx5z6kq3r8m4t2v7w9y0abcd.png"),
		},
		{
			name:     "multiple dots use the last one",
			template: DefaultPathTemplate,
			source:   "archive.tar.GZ",
			want:     filepath.Join(root, "uploads", "20240305", "01hx5z6kq3r8m4t2v7w9y0abcd.gz"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(tt.template, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUsesCurrentDate(t *testing.T) {
	resolver, err := NewPathResolver(t.TempDir())
	require.NoError(t, err)

	before := time.Now().Format("20060102")
	got, err := resolver.Resolve(DefaultPathTemplate, "photo.JPEG")
	require.NoError(t, err)
	after := time.Now().Format("20060102")

	assert.Equal(t, ".jpeg", filepath.Ext(got))
	dir := filepath.Base(filepath.Dir(got))
	assert.Contains(t, []string{before, after}, dir)

	name := strings.TrimSuffix(filepath.Base(got), ".jpeg")
	assert.GreaterOrEqual(t, len(name), 16)
}

func TestResolveInvalidTemplate(t *testing.T) {
	resolver, err := NewPathResolver(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name       string
		template   string
		source     string
		missingExt bool
	}{
		{"empty source", DefaultPathTemplate, "", true},
		{"no extension", DefaultPathTemplate, "README", true},
		{"trailing dot", DefaultPathTemplate, "photo.", true},
		{"dot file", DefaultPathTemplate, ".profile", true},
		{"escapes root", "@root/../outside/{random}.{extension}", "a.jpg", false},
		{"absolute outside root", "/etc/{random}.{extension}", "a.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Resolve(tt.template, tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTemplate), "got %v", err)
			assert.Equal(t, tt.missingExt, errors.Is(err, ErrMissingExtension))
		})
	}
}

func TestResolveNeverCollides(t *testing.T) {
	resolver, err := NewPathResolver(t.TempDir())
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 2000; i++ {
		got, err := resolver.Resolve(DefaultPathTemplate, "a.jpg")
		require.NoError(t, err)
		_, dup := seen[got]
		require.False(t, dup, "collision on %s", got)
		seen[got] = struct{}{}
	}
}

func TestRelativeAndAbsolute(t *testing.T) {
	root := t.TempDir()
	resolver, err := NewPathResolver(root)
	require.NoError(t, err)

	abs := filepath.Join(root, "uploads", "20240101", "abc.jpg")
	rel := resolver.Relative(abs)
	assert.Equal(t, "/uploads/20240101/abc.jpg", rel)
	assert.NotContains(t, rel, root)

	back, err := resolver.Absolute(rel)
	require.NoError(t, err)
	assert.Equal(t, abs, back)

	contained, err := resolver.Absolute("/../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), contained)

	_, err = resolver.Absolute("")
	assert.Error(t, err)
	_, err = resolver.Absolute("/")
	assert.Error(t, err)
}

func TestNewPathResolverRequiresAbsoluteRoot(t *testing.T) {
	_, err := NewPathResolver("relative/root")
	assert.Error(t, err)
}

func TestThumbnailPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a/b/photo.jpg", "a/b/photo_thumb.jpg"},
		{"/uploads/20240101/abc.png", "/uploads/20240101/abc_thumb.png"},
		{"a/b/photo.v2.jpg", "a/b/photo.v2_thumb.jpg"},
		{"a.b/photo", "a.b/photo_thumb"},
		{"x/.hidden", "x/.hidden_thumb"},
		{"photo.jpg", "photo_thumb.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ThumbnailPath(tt.in))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "jpg", Extension("dir.d/Photo.JPG"))
	assert.Equal(t, "png", Extension("tmp.png"))
	assert.Equal(t, "", Extension("dir.d/noext"))
	assert.Equal(t, "", Extension(""))
}
