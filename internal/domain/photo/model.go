package photo

import (
	"context"
	"time"

	"jan-server/services/attachment-api/internal/domain/attachment"
)

// Column names, also used as attachment attribute names.
const (
	FieldTitle     = "title"
	FieldImage     = "image"
	FieldImageName = "image_name"
	FieldDocument  = "document"
)

// Photo is a titled image with an optional document attachment.
type Photo struct {
	ID        string
	Title     string `validate:"required,max=255"`
	Image     string `validate:"required,max=512"`
	ImageName string `validate:"max=255"`
	Document  string `validate:"max=512"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Warnings lists non-fatal attachment failures of the last save or delete.
	Warnings []string `validate:"-"`

	persisted bool
	snapshot  map[string]string
}

func (p *Photo) GetField(name string) string {
	switch name {
	case FieldTitle:
		return p.Title
	case FieldImage:
		return p.Image
	case FieldImageName:
		return p.ImageName
	case FieldDocument:
		return p.Document
	default:
		return ""
	}
}

func (p *Photo) SetField(name, value string) {
	switch name {
	case FieldTitle:
		p.Title = value
	case FieldImage:
		p.Image = value
	case FieldImageName:
		p.ImageName = value
	case FieldDocument:
		p.Document = value
	}
}

func (p *Photo) IsNew() bool { return !p.persisted }

// OldField returns the value the field had when the photo was last loaded or saved.
func (p *Photo) OldField(name string) string {
	return p.snapshot[name]
}

// MarkPersisted records the current field values as stored.
func (p *Photo) MarkPersisted() {
	p.persisted = true
	p.snapshot = map[string]string{
		FieldTitle:     p.Title,
		FieldImage:     p.Image,
		FieldImageName: p.ImageName,
		FieldDocument:  p.Document,
	}
}

var _ attachment.Record = (*Photo)(nil)

// Hooks are the lifecycle callbacks a repository runs around a write.
// *attachment.Group implements them.
type Hooks interface {
	BeforeSave(ctx context.Context, rec attachment.Record) error
	AfterSave(ctx context.Context, rec attachment.Record) attachment.Outcome
	BeforeDelete(ctx context.Context, rec attachment.Record) attachment.Outcome
}

var _ Hooks = (*attachment.Group)(nil)

// CreateInput carries a new photo. Image may hold an inline data URI; files
// arrive through Uploads keyed by attribute.
type CreateInput struct {
	Title     string
	ImageName string
	Image     string
	Uploads   attachment.UploadSource
}

// UpdateInput carries changed fields; nil fields are left as stored.
type UpdateInput struct {
	Title     *string
	ImageName *string
	Image     *string
	Uploads   attachment.UploadSource
}

// ListResult is one page of photos.
type ListResult struct {
	Items  []*Photo
	Total  int64
	Limit  int
	Offset int
}
