package attachment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "jan-server/services/attachment-api/attachment"

// State is the position of a binding within one save cycle.
type State int

const (
	StateIdle State = iota
	StateUnchanged
	StateDetected
	StateResolved
	StatePersisted
	StateCommitted
	StatePostProcessed
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUnchanged:
		return "unchanged"
	case StateDetected:
		return "detected"
	case StateResolved:
		return "resolved"
	case StatePersisted:
		return "persisted"
	case StateCommitted:
		return "committed"
	case StatePostProcessed:
		return "post_processed"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Binding configures how one record attribute stores its artifact.
type Binding struct {
	Attribute         string
	FilenameAttribute string // images only, optional
	PathTemplate      string
	Image             bool
}

// Validate checks the binding is usable.
func (b Binding) Validate() error {
	if strings.TrimSpace(b.Attribute) == "" {
		return errors.New("binding attribute is required")
	}
	if b.FilenameAttribute != "" && !b.Image {
		return fmt.Errorf("binding %s: filename attribute is only supported for images", b.Attribute)
	}
	if b.FilenameAttribute == b.Attribute {
		return fmt.Errorf("binding %s: filename attribute must differ from attribute", b.Attribute)
	}
	if !strings.Contains(b.PathTemplate, PlaceholderExtension) {
		return fmt.Errorf("binding %s: path template must contain %s", b.Attribute, PlaceholderExtension)
	}
	return nil
}

// Controller drives one binding of one record through its lifecycle.
// It is not safe for concurrent use; one record save owns it at a time.
type Controller struct {
	binding    Binding
	resolver   *PathResolver
	normalizer *Normalizer
	fs         Filesystem
	notifier   *Notifier
	recorder   Recorder
	log        zerolog.Logger
	tracer     trace.Tracer

	state        State
	loaded       bool
	existed      bool
	priorPath    string
	pending      *Artifact
	resolvedPath string

	// values replaced by BeforeSave, kept so a failed group save can restore them
	validatedValue    string
	validatedFilename string
	filenameFilled    bool
}

func (c *Controller) Binding() Binding     { return c.binding }
func (c *Controller) State() State         { return c.state }
func (c *Controller) PriorPath() string    { return c.priorPath }
func (c *Controller) ResolvedPath() string { return c.resolvedPath }
func (c *Controller) Pending() *Artifact   { return c.pending }

// Load captures the stored path of a persisted record.
func (c *Controller) Load(rec Record) {
	if rec.IsNew() {
		return
	}
	c.priorPath = rec.GetField(c.binding.Attribute)
	c.loaded = true
}

// BeforeValidate detects a submitted artifact. A detected artifact replaces the
// attribute with a pending marker; otherwise an existing record gets its prior
// path back so validation never sees a blanked field.
func (c *Controller) BeforeValidate(ctx context.Context, rec Record, uploads UploadSource) error {
	if c.state == StateDeleted {
		return fmt.Errorf("binding %s: record was deleted", c.binding.Attribute)
	}
	c.reset()
	c.state = StateIdle

	c.existed = !rec.IsNew()
	if c.existed && !c.loaded {
		c.priorPath = rec.OldField(c.binding.Attribute)
		c.loaded = true
	}

	var upload *Upload
	if uploads != nil {
		upload, _ = uploads.Lookup(c.binding.Attribute)
	}
	artifact, err := c.normalizer.Normalize(upload, rec.GetField(c.binding.Attribute))
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	if artifact.Present() {
		c.pending = artifact
		rec.SetField(c.binding.Attribute, PendingValue(artifact))
		c.state = StateDetected
		c.log.Debug().
			Str("source", artifact.Kind.String()).
			Str("original_name", artifact.OriginalName).
			Int64("bytes", artifact.Size).
			Msg("artifact detected")
		return nil
	}

	if c.existed {
		rec.SetField(c.binding.Attribute, c.priorPath)
	}
	c.state = StateUnchanged
	return nil
}

// BeforeSave resolves the final path and stores it, relative to the storage root,
// on the record. Nothing is written to the record when resolution fails.
func (c *Controller) BeforeSave(ctx context.Context, rec Record) error {
	if c.state != StateDetected {
		return nil
	}
	abs, err := c.resolver.Resolve(c.binding.PathTemplate, c.pending.OriginalName)
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	c.validatedValue = rec.GetField(c.binding.Attribute)
	rec.SetField(c.binding.Attribute, c.resolver.Relative(abs))

	c.filenameFilled = false
	if fa := c.binding.FilenameAttribute; fa != "" {
		c.validatedFilename = rec.GetField(fa)
		if c.validatedFilename == "" {
			rec.SetField(fa, c.pending.BaseName())
			c.filenameFilled = true
		}
	}

	c.resolvedPath = abs
	c.state = StateResolved
	return nil
}

// undoBeforeSave puts back what validation produced.
func (c *Controller) undoBeforeSave(rec Record) {
	if c.state != StateResolved {
		return
	}
	rec.SetField(c.binding.Attribute, c.validatedValue)
	if c.filenameFilled {
		rec.SetField(c.binding.FilenameAttribute, c.validatedFilename)
	}
	c.resolvedPath = ""
	c.state = StateDetected
}

// AfterSave moves the staged artifact into place, removes the superseded one and
// publishes the commit. Only a failed move is fatal.
func (c *Controller) AfterSave(ctx context.Context, rec Record) Outcome {
	if c.state != StateResolved {
		return Outcome{}
	}
	ctx, span := c.startSpan(ctx, "attachment.after_save")
	defer span.End()

	if err := c.persist(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return Outcome{Fatal: err}
	}
	out := c.commit(ctx, rec)
	for _, adv := range out.Advisories {
		span.RecordError(adv)
	}
	return out
}

func (c *Controller) persist(ctx context.Context) error {
	if c.pending == nil || c.pending.TempPath == "" {
		err := newError(KindPersist, "move", c.resolvedPath, errors.New("no staged artifact"))
		c.fail(ctx, err)
		return err
	}
	dir := filepath.Dir(c.resolvedPath)
	if err := c.fs.MkdirAll(dir); err != nil {
		perr := newError(KindPersist, "mkdir", dir, err)
		c.fail(ctx, perr)
		return perr
	}
	if err := c.fs.Move(c.pending.TempPath, c.resolvedPath); err != nil {
		perr := newError(KindPersist, "move", c.resolvedPath, err)
		c.fail(ctx, perr)
		return perr
	}
	c.pending.TempPath = ""
	c.state = StatePersisted
	return nil
}

// unpersist removes a moved artifact whose record save is being abandoned.
func (c *Controller) unpersist(ctx context.Context) {
	if c.state != StatePersisted {
		return
	}
	if err := c.fs.Remove(c.resolvedPath); err != nil {
		c.advise(ctx, newError(KindCleanup, "rollback", c.resolvedPath, err))
	}
	c.state = StateIdle
}

func (c *Controller) commit(ctx context.Context, rec Record) Outcome {
	var out Outcome
	rel := c.resolver.Relative(c.resolvedPath)
	prior := c.priorPath
	if c.existed && prior != "" && prior != rel {
		for _, err := range c.removeArtifact("replace", prior) {
			out.advise(err)
		}
	}

	c.priorPath = rel
	c.existed = true
	c.loaded = true
	c.state = StateCommitted
	c.recorder.Committed(c.binding.Attribute, c.pending.Size)
	c.log.Info().
		Str("path", rel).
		Str("replaced", prior).
		Int64("bytes", c.pending.Size).
		Msg("artifact committed")

	if c.notifier != nil {
		ran, errs := c.notifier.Publish(ctx, Committed{
			Attribute:    c.binding.Attribute,
			Image:        c.binding.Image,
			Path:         c.resolvedPath,
			RelativePath: rel,
			PriorPath:    prior,
			MimeType:     c.pending.MimeType,
			Size:         c.pending.Size,
		})
		for _, err := range errs {
			if _, ok := KindOf(err); !ok {
				err = newError(KindDerivation, "notify", rel, err)
			}
			out.advise(err)
		}
		if ran > 0 && c.binding.Image {
			c.state = StatePostProcessed
		}
	}

	for _, adv := range out.Advisories {
		c.advise(ctx, adv)
	}
	return out
}

// BeforeDelete removes the stored artifact and its thumbnail. It never blocks the delete.
func (c *Controller) BeforeDelete(ctx context.Context, rec Record) Outcome {
	ctx, span := c.startSpan(ctx, "attachment.before_delete")
	defer span.End()

	target := c.priorPath
	if !c.loaded {
		target = rec.OldField(c.binding.Attribute)
		if target == "" {
			target = rec.GetField(c.binding.Attribute)
		}
	}

	var out Outcome
	if target != "" && !IsInlineImage(target) {
		for _, err := range c.removeArtifact("delete", target) {
			out.advise(err)
		}
	}
	c.reset()
	c.state = StateDeleted

	for _, adv := range out.Advisories {
		span.RecordError(adv)
		c.advise(ctx, adv)
	}
	return out
}

// Discard releases a staged file that never reached its final path.
// A promoted artifact is left alone.
func (c *Controller) Discard() {
	if c.pending == nil {
		return
	}
	if err := c.pending.Discard(); err != nil {
		c.log.Warn().Err(err).Msg("failed to remove staged upload")
	}
}

func (c *Controller) reset() {
	c.Discard()
	c.pending = nil
	c.resolvedPath = ""
}

func (c *Controller) removeArtifact(op, rel string) []error {
	abs, err := c.resolver.Absolute(rel)
	if err != nil {
		return []error{newError(KindCleanup, op, rel, err)}
	}
	targets := []string{abs}
	if c.binding.Image {
		targets = append(targets, ThumbnailPath(abs))
	}

	var errs []error
	for _, target := range targets {
		if !c.fs.Exists(target) {
			continue
		}
		if err := c.fs.Remove(target); err != nil {
			errs = append(errs, newError(KindCleanup, op, target, err))
			continue
		}
		c.log.Debug().Str("op", op).Str("path", target).Msg("artifact removed")
	}
	return errs
}

func (c *Controller) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("attachment.attribute", c.binding.Attribute),
		attribute.String("attachment.state", c.state.String()),
	))
}

func (c *Controller) fail(ctx context.Context, err error) {
	kind, _ := KindOf(err)
	event := c.log.Error()
	if kind == KindDecode {
		event = c.log.Warn()
	}
	event.Err(err).Str("kind", string(kind)).Msg("attachment step failed")
	if kind != "" {
		c.recorder.Failed(c.binding.Attribute, kind)
	}
	trace.SpanFromContext(ctx).RecordError(err)
}

func (c *Controller) advise(ctx context.Context, err error) {
	kind, _ := KindOf(err)
	c.log.Warn().Err(err).Str("kind", string(kind)).Msg("attachment advisory")
	if kind != "" {
		c.recorder.Advisory(c.binding.Attribute, kind)
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
