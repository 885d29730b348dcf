package attachment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierDeliversPerAttribute(t *testing.T) {
	n := NewNotifier()
	var order []string
	n.Subscribe("image", ListenerFunc(func(context.Context, Committed) error {
		order = append(order, "first")
		return nil
	}))
	n.Subscribe("image", ListenerFunc(func(context.Context, Committed) error {
		order = append(order, "second")
		return errors.New("boom")
	}))
	n.Subscribe("document", ListenerFunc(func(context.Context, Committed) error {
		order = append(order, "document")
		return nil
	}))

	ran, errs := n.Publish(context.Background(), Committed{Attribute: "image"})
	assert.Equal(t, 2, ran)
	assert.Len(t, errs, 1)
	assert.Equal(t, []string{"first", "second"}, order)

	ran, errs = n.Publish(context.Background(), Committed{Attribute: "avatar"})
	assert.Zero(t, ran)
	assert.Empty(t, errs)
}

func TestOutcomeMerge(t *testing.T) {
	first := newError(KindPersist, "move", "/a", errors.New("x"))
	var out Outcome
	out.merge(Outcome{Advisories: []error{ErrCleanup}})
	out.merge(Outcome{Fatal: first})
	out.merge(Outcome{Fatal: newError(KindPersist, "mkdir", "/b", nil)})

	assert.Same(t, first, out.Fatal)
	assert.Len(t, out.Advisories, 1)
	assert.False(t, out.OK())
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := newError(KindCleanup, "delete", "/x.jpg", errors.New("busy"))
	assert.ErrorIs(t, err, ErrCleanup)
	assert.NotErrorIs(t, err, ErrPersist)
	assert.False(t, KindCleanup.Fatal())
	assert.True(t, KindDecode.Fatal())

	kind, ok := KindOf(errors.Join(errors.New("outer"), err))
	assert.True(t, ok)
	assert.Equal(t, KindCleanup, kind)
}
