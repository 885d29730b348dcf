package attachment

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"jan-server/services/attachment-api/internal/utils/token"
)

const (
	// RootAlias is replaced by the storage root before placeholders are expanded.
	RootAlias = "@root"

	PlaceholderDate      = "{date}"
	PlaceholderRandom    = "{random}"
	PlaceholderExtension = "{extension}"

	// DefaultPathTemplate stores artifacts under uploads/YYYYMMDD with a random name.
	DefaultPathTemplate = RootAlias + "/uploads/" + PlaceholderDate + "/" + PlaceholderRandom + "." + PlaceholderExtension

	dateLayout  = "20060102"
	thumbMarker = "_thumb"
)

// ErrMissingExtension is wrapped by the InvalidTemplate error returned when the
// extension source carries no extension.
var ErrMissingExtension = errors.New("no file extension")

// PathResolver expands path templates below a fixed storage root.
type PathResolver struct {
	root  string
	now   func() time.Time
	token func() string
}

// ResolverOption customises a PathResolver.
type ResolverOption func(*PathResolver)

// WithClock overrides the clock used for {date}.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *PathResolver) { r.now = now }
}

// WithTokenSource overrides the generator used for {random}.
func WithTokenSource(next func() string) ResolverOption {
	return func(r *PathResolver) { r.token = next }
}

// NewPathResolver returns a resolver rooted at root, which must be absolute.
func NewPathResolver(root string, opts ...ResolverOption) (*PathResolver, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("storage root %q is not absolute", root)
	}
	r := &PathResolver{
		root:  filepath.Clean(root),
		now:   time.Now,
		token: token.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the storage root.
func (r *PathResolver) Root() string {
	return r.root
}

// Resolve expands template into an absolute path. The extension is taken from
// extensionSource; each call draws a new random token.
func (r *PathResolver) Resolve(template, extensionSource string) (string, error) {
	ext := Extension(extensionSource)
	if ext == "" {
		return "", newError(KindInvalidTemplate, "resolve", extensionSource, ErrMissingExtension)
	}

	expanded := template
	if strings.HasPrefix(expanded, RootAlias) {
		expanded = r.root + strings.TrimPrefix(expanded, RootAlias)
	}
	expanded = strings.NewReplacer(
		PlaceholderDate, r.now().Format(dateLayout),
		PlaceholderRandom, r.token(),
		PlaceholderExtension, ext,
	).Replace(expanded)

	abs := filepath.FromSlash(expanded)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.root, abs)
	}
	abs = filepath.Clean(abs)
	if !r.within(abs) || abs == r.root {
		return "", newError(KindInvalidTemplate, "resolve", template, fmt.Errorf("path escapes storage root"))
	}
	return abs, nil
}

// Relative returns abs as a slash separated path below the root with a leading slash,
// the form stored on records.
func (r *PathResolver) Relative(abs string) string {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return ""
	}
	return "/" + filepath.ToSlash(rel)
}

// Absolute maps a stored relative path back onto the filesystem.
func (r *PathResolver) Absolute(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("empty path")
	}
	abs := filepath.Join(r.root, filepath.FromSlash(path.Clean("/"+rel)))
	if !r.within(abs) || abs == r.root {
		return "", fmt.Errorf("path %q escapes storage root", rel)
	}
	return abs, nil
}

func (r *PathResolver) within(abs string) bool {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Extension returns the lowercased extension of name without the dot,
// split on the last dot of the base name.
func Extension(name string) string {
	base := path.Base(filepath.ToSlash(strings.TrimSpace(name)))
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// ThumbnailPath returns the sibling path of a derived thumbnail: the marker goes
// before the last dot of the base name, or at the end when there is none.
func ThumbnailPath(p string) string {
	dir, file := filepath.Split(p)
	idx := strings.LastIndex(file, ".")
	if idx <= 0 {
		return dir + file + thumbMarker
	}
	return dir + file[:idx] + thumbMarker + file[idx:]
}
