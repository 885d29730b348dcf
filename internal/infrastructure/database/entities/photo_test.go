package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/attachment-api/internal/domain/attachment"
	"jan-server/services/attachment-api/internal/domain/photo"
)

type fakeHooks struct {
	calls     []string
	saveErr   error
	afterSave attachment.Outcome
}

func (h *fakeHooks) BeforeSave(_ context.Context, rec attachment.Record) error {
	h.calls = append(h.calls, "before_save")
	if h.saveErr != nil {
		return h.saveErr
	}
	rec.SetField(photo.FieldImage, "/uploads/20240101/resolved.jpg")
	return nil
}

func (h *fakeHooks) AfterSave(context.Context, attachment.Record) attachment.Outcome {
	h.calls = append(h.calls, "after_save")
	return h.afterSave
}

func (h *fakeHooks) BeforeDelete(context.Context, attachment.Record) attachment.Outcome {
	h.calls = append(h.calls, "before_delete")
	return attachment.Outcome{Advisories: []error{attachment.ErrCleanup}}
}

func TestPhotoHooksOnCreate(t *testing.T) {
	hooks := &fakeHooks{}
	p := &photo.Photo{Title: "t", Image: "pending.jpg"}
	e := NewPhoto(p, hooks)
	assert.Equal(t, "pending.jpg", e.Image)

	require.NoError(t, e.BeforeSave(nil))
	require.NoError(t, e.BeforeCreate(nil))
	assert.Equal(t, "/uploads/20240101/resolved.jpg", e.Image, "resolved path is written to the row")
	_, err := uuid.Parse(e.ID)
	assert.NoError(t, err)

	require.NoError(t, e.AfterSave(nil))
	require.NoError(t, e.Commit())
	assert.Equal(t, e.ID, p.ID)
	assert.False(t, p.IsNew())
	assert.Equal(t, "/uploads/20240101/resolved.jpg", p.OldField(photo.FieldImage))
	assert.Equal(t, []string{"before_save", "after_save"}, hooks.calls)
}

func TestPhotoHooksPropagateFatalErrors(t *testing.T) {
	t.Run("before save", func(t *testing.T) {
		hooks := &fakeHooks{saveErr: attachment.ErrInvalidTemplate}
		e := NewPhoto(&photo.Photo{Image: "a"}, hooks)
		assert.ErrorIs(t, e.BeforeSave(nil), attachment.ErrInvalidTemplate)
		assert.Equal(t, "a", e.Image)
	})

	t.Run("after save", func(t *testing.T) {
		persistErr := &attachment.Error{Kind: attachment.KindPersist, Op: "move", Err: errors.New("disk full")}
		hooks := &fakeHooks{afterSave: attachment.Outcome{Fatal: persistErr}}
		e := NewPhoto(&photo.Photo{Image: "a"}, hooks)
		assert.ErrorIs(t, e.AfterSave(nil), attachment.ErrPersist)
	})

	t.Run("advisories do not fail", func(t *testing.T) {
		hooks := &fakeHooks{afterSave: attachment.Outcome{Advisories: []error{attachment.ErrDerivation}}}
		e := NewPhoto(&photo.Photo{Image: "a"}, hooks)
		assert.NoError(t, e.AfterSave(nil))
	})
}

func TestPhotoBeforeDeleteNeverFails(t *testing.T) {
	hooks := &fakeHooks{}
	e := NewPhoto(&photo.Photo{ID: "id", Image: "/a.jpg"}, hooks)
	assert.NoError(t, e.BeforeDelete(nil))
	assert.Equal(t, []string{"before_delete"}, hooks.calls)
}

func TestPhotoWithoutHooks(t *testing.T) {
	e := &Photo{ID: "x", Image: "/a.jpg"}
	assert.NoError(t, e.BeforeSave(nil))
	assert.NoError(t, e.AfterSave(nil))
	assert.NoError(t, e.BeforeDelete(nil))
	assert.ErrorIs(t, e.Commit(), ErrMissingRecord)

	p := e.Domain()
	assert.False(t, p.IsNew())
	assert.Equal(t, "/a.jpg", p.OldField(photo.FieldImage))
}
