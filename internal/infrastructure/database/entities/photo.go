package entities

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jan-server/services/attachment-api/internal/domain/photo"
)

// Photo is the persisted photo row. The attachment hooks run inside GORM's
// write transaction: an error from BeforeSave or AfterSave rolls the row back.
type Photo struct {
	ID        string    `gorm:"type:varchar(40);primaryKey"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Image     string    `gorm:"type:varchar(512);not null"`
	ImageName string    `gorm:"type:varchar(255);not null;default:''"`
	Document  string    `gorm:"type:varchar(512);not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	record *photo.Photo
	hooks  photo.Hooks
}

func (Photo) TableName() string {
	return "attachment_api.photos"
}

// NewPhoto binds a domain photo and its hooks to a row for one write.
func NewPhoto(p *photo.Photo, hooks photo.Hooks) *Photo {
	e := &Photo{record: p, hooks: hooks}
	e.pull()
	return e
}

// Domain maps a loaded row to a persisted domain photo.
func (e *Photo) Domain() *photo.Photo {
	p := &photo.Photo{
		ID:        e.ID,
		Title:     e.Title,
		Image:     e.Image,
		ImageName: e.ImageName,
		Document:  e.Document,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	p.MarkPersisted()
	return p
}

func (e *Photo) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *Photo) BeforeSave(tx *gorm.DB) error {
	if e.hooks == nil || e.record == nil {
		return nil
	}
	if err := e.hooks.BeforeSave(hookContext(tx), e.record); err != nil {
		return err
	}
	e.pull()
	return nil
}

func (e *Photo) AfterSave(tx *gorm.DB) error {
	if e.hooks == nil || e.record == nil {
		return nil
	}
	if err := e.hooks.AfterSave(hookContext(tx), e.record).Err(); err != nil {
		return err
	}
	e.push()
	return nil
}

// BeforeDelete removes the stored files. Cleanup failures are advisory and never
// block the delete.
func (e *Photo) BeforeDelete(tx *gorm.DB) error {
	if e.hooks == nil || e.record == nil {
		return nil
	}
	e.hooks.BeforeDelete(hookContext(tx), e.record)
	return nil
}

// ErrMissingRecord is returned when a hooked write has no domain photo.
var ErrMissingRecord = errors.New("photo entity has no domain record")

// Commit marks the bound domain photo as stored once the transaction succeeded.
func (e *Photo) Commit() error {
	if e.record == nil {
		return ErrMissingRecord
	}
	e.push()
	e.record.MarkPersisted()
	return nil
}

// pull copies the domain fields onto the row.
func (e *Photo) pull() {
	if e.record == nil {
		return
	}
	e.ID = e.record.ID
	e.Title = e.record.Title
	e.Image = e.record.Image
	e.ImageName = e.record.ImageName
	e.Document = e.record.Document
	e.CreatedAt = e.record.CreatedAt
	e.UpdatedAt = e.record.UpdatedAt
}

// push copies generated columns back to the domain photo.
func (e *Photo) push() {
	if e.record == nil {
		return
	}
	e.record.ID = e.ID
	e.record.CreatedAt = e.CreatedAt
	e.record.UpdatedAt = e.UpdatedAt
}

func hookContext(tx *gorm.DB) context.Context {
	if tx != nil && tx.Statement != nil && tx.Statement.Context != nil {
		return tx.Statement.Context
	}
	return context.Background()
}
