package attachment

import (
	"context"

	"github.com/rs/zerolog"
)

// Manager builds controllers that share one set of collaborators.
type Manager struct {
	resolver   *PathResolver
	normalizer *Normalizer
	fs         Filesystem
	notifier   *Notifier
	recorder   Recorder
	log        zerolog.Logger
}

func NewManager(resolver *PathResolver, normalizer *Normalizer, fs Filesystem, notifier *Notifier, recorder Recorder, log zerolog.Logger) *Manager {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &Manager{
		resolver:   resolver,
		normalizer: normalizer,
		fs:         fs,
		notifier:   notifier,
		recorder:   recorder,
		log:        log.With().Str("component", "attachment").Logger(),
	}
}

func (m *Manager) Resolver() *PathResolver { return m.resolver }
func (m *Manager) Notifier() *Notifier     { return m.notifier }

// New returns an idle controller for b.
func (m *Manager) New(b Binding) *Controller {
	return &Controller{
		binding:    b,
		resolver:   m.resolver,
		normalizer: m.normalizer,
		fs:         m.fs,
		notifier:   m.notifier,
		recorder:   m.recorder,
		log:        m.log.With().Str("attribute", b.Attribute).Logger(),
		tracer:     defaultTracer(),
	}
}

// Bind creates controllers for every binding of rec and observes its load.
func (m *Manager) Bind(rec Record, bindings ...Binding) *Group {
	g := &Group{controllers: make([]*Controller, 0, len(bindings))}
	for _, b := range bindings {
		c := m.New(b)
		c.Load(rec)
		g.controllers = append(g.controllers, c)
	}
	return g
}

// Group drives every binding of one record together. Saves are all-or-nothing
// across the group: a fatal failure in any binding undoes the others.
type Group struct {
	controllers []*Controller
}

// Controller returns the controller bound to attribute, or nil.
func (g *Group) Controller(attribute string) *Controller {
	for _, c := range g.controllers {
		if c.binding.Attribute == attribute {
			return c
		}
	}
	return nil
}

func (g *Group) Load(rec Record) {
	for _, c := range g.controllers {
		c.Load(rec)
	}
}

func (g *Group) BeforeValidate(ctx context.Context, rec Record, uploads UploadSource) error {
	for _, c := range g.controllers {
		if err := c.BeforeValidate(ctx, rec, uploads); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) BeforeSave(ctx context.Context, rec Record) error {
	for i, c := range g.controllers {
		if err := c.BeforeSave(ctx, rec); err != nil {
			for _, done := range g.controllers[:i] {
				done.undoBeforeSave(rec)
			}
			return err
		}
	}
	return nil
}

// AfterSave moves every staged artifact first and only then removes superseded
// files, so a failed move never leaves the record pointing at a deleted artifact.
func (g *Group) AfterSave(ctx context.Context, rec Record) Outcome {
	resolved := make([]*Controller, 0, len(g.controllers))
	for _, c := range g.controllers {
		if c.state == StateResolved {
			resolved = append(resolved, c)
		}
	}
	if len(resolved) == 0 {
		return Outcome{}
	}

	ctx, span := resolved[0].startSpan(ctx, "attachment.group.after_save")
	defer span.End()

	for i, c := range resolved {
		if err := c.persist(ctx); err != nil {
			for _, done := range resolved[:i] {
				done.unpersist(ctx)
			}
			span.RecordError(err)
			return Outcome{Fatal: err}
		}
	}

	var out Outcome
	for _, c := range resolved {
		out.merge(c.commit(ctx, rec))
	}
	return out
}

func (g *Group) BeforeDelete(ctx context.Context, rec Record) Outcome {
	var out Outcome
	for _, c := range g.controllers {
		out.merge(c.BeforeDelete(ctx, rec))
	}
	return out
}

// Discard releases staged files of every binding.
func (g *Group) Discard() {
	for _, c := range g.controllers {
		c.Discard()
	}
}
