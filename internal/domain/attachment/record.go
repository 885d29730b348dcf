package attachment

import (
	"io"
)

// Record is the owning entity an attachment is bound to.
type Record interface {
	GetField(name string) string
	SetField(name, value string)
	IsNew() bool
	OldField(name string) string
}

// Filesystem is where committed artifacts live.
type Filesystem interface {
	MkdirAll(dir string) error
	Move(src, dst string) error
	Exists(path string) bool
	Remove(path string) error
}

// Recorder observes controller events for metrics.
type Recorder interface {
	Committed(attribute string, bytes int64)
	Failed(attribute string, kind Kind)
	Advisory(attribute string, kind Kind)
}

type nopRecorder struct{}

func (nopRecorder) Committed(string, int64) {}
func (nopRecorder) Failed(string, Kind)     {}
func (nopRecorder) Advisory(string, Kind)   {}

// Upload is a file handle submitted for an attribute, e.g. a multipart part.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadSource finds the upload submitted for an attribute.
type UploadSource interface {
	Lookup(attribute string) (*Upload, bool)
}

// Uploads is an UploadSource keyed by attribute name.
type Uploads map[string]*Upload

func (u Uploads) Lookup(attribute string) (*Upload, bool) {
	if u == nil {
		return nil, false
	}
	up, ok := u[attribute]
	if !ok || up == nil || up.Open == nil {
		return nil, false
	}
	return up, true
}
