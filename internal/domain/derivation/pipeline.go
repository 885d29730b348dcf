package derivation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jan-server/services/attachment-api/internal/domain/attachment"
)

const (
	tracerName = "jan-server/services/attachment-api/derivation"

	StageThumbnail = "thumbnail"
	StageWatermark = "watermark"
)

// Result lists the files the pipeline produced or modified.
type Result struct {
	Original    string
	Thumbnail   string
	Watermarked []string
}

// Pipeline derives thumbnails and watermarks from committed images.
type Pipeline struct {
	proc      Processor
	thumb     ThumbnailSpec
	watermark WatermarkSpec
	recorder  Recorder
	log       zerolog.Logger
	tracer    trace.Tracer
}

func NewPipeline(proc Processor, thumb ThumbnailSpec, watermark WatermarkSpec, recorder Recorder, log zerolog.Logger) *Pipeline {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Pipeline{
		proc:      proc,
		thumb:     thumb,
		watermark: watermark,
		recorder:  recorder,
		log:       log.With().Str("component", "derivation-pipeline").Logger(),
		tracer:    otel.Tracer(tracerName),
	}
}

// Thumbnail returns the configured thumbnail spec.
func (p *Pipeline) Thumbnail() ThumbnailSpec { return p.thumb }

// ArtifactCommitted runs the configured pipeline for a committed image.
func (p *Pipeline) ArtifactCommitted(ctx context.Context, ev attachment.Committed) error {
	if !ev.Image {
		return nil
	}
	_, err := p.Process(ctx, ev.Path, p.thumb, p.watermark)
	return err
}

// Process writes the thumbnail sibling of committedPath and watermarks the
// original and the thumbnail in place. Every stage is attempted; failures are
// joined into a single derivation error and never touch the original's commit.
func (p *Pipeline) Process(ctx context.Context, committedPath string, thumb ThumbnailSpec, watermark WatermarkSpec) (Result, error) {
	_, span := p.tracer.Start(ctx, "derivation.process", trace.WithAttributes(
		attribute.String("derivation.path", committedPath),
		attribute.Bool("derivation.thumbnail", thumb.Enabled),
		attribute.Bool("derivation.watermark", watermark.active()),
	))
	defer span.End()
	start := time.Now()

	res := Result{Original: committedPath}
	var errs []error

	if thumb.Enabled {
		target := attachment.ThumbnailPath(committedPath)
		err := p.makeThumbnail(committedPath, target, thumb)
		p.recorder.Stage(StageThumbnail, err == nil)
		if err != nil {
			errs = append(errs, err)
		} else {
			res.Thumbnail = target
		}
	}

	if watermark.active() {
		targets := []string{committedPath}
		if res.Thumbnail != "" {
			targets = append(targets, res.Thumbnail)
		}
		for _, target := range targets {
			applied, err := p.applyWatermark(target, watermark)
			if !applied && err == nil {
				continue
			}
			p.recorder.Stage(StageWatermark, err == nil)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			res.Watermarked = append(res.Watermarked, target)
		}
	}

	p.recorder.Duration(time.Since(start).Seconds())

	if len(errs) > 0 {
		err := &attachment.Error{
			Kind: attachment.KindDerivation,
			Op:   "derive",
			Path: committedPath,
			Err:  errors.Join(errs...),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "derivation failed")
		p.log.Warn().Err(err).Str("path", committedPath).Msg("derived images incomplete")
		return res, err
	}

	p.log.Debug().
		Str("path", committedPath).
		Str("thumbnail", res.Thumbnail).
		Int("watermarked", len(res.Watermarked)).
		Msg("derived images written")
	return res, nil
}

func (p *Pipeline) makeThumbnail(src, dst string, spec ThumbnailSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	img, err := p.proc.Thumbnail(src, spec.Width, spec.Height)
	if err != nil {
		return fmt.Errorf("thumbnail %s: %w", src, err)
	}
	if err := img.Save(dst); err != nil {
		return fmt.Errorf("save thumbnail %s: %w", dst, err)
	}
	return nil
}

// applyWatermark reports false without error when the watermark does not apply.
func (p *Pipeline) applyWatermark(target string, spec WatermarkSpec) (bool, error) {
	var (
		img Renderable
		err error
	)
	switch spec.Kind {
	case WatermarkText:
		img, err = p.proc.DrawText(target, spec.Content, spec.Position, spec.FontSize)
	case WatermarkImage:
		if _, statErr := os.Stat(spec.Content); statErr != nil {
			p.log.Debug().Str("overlay", spec.Content).Msg("watermark overlay missing, skipped")
			return false, nil
		}
		img, err = p.proc.Composite(target, spec.Content, spec.Position)
	default:
		return false, fmt.Errorf("unknown watermark kind %q", spec.Kind)
	}
	if err != nil {
		return false, fmt.Errorf("watermark %s: %w", target, err)
	}
	if err := img.Save(target); err != nil {
		return false, fmt.Errorf("save watermarked %s: %w", target, err)
	}
	return true, nil
}
