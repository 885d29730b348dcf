package derivation

import (
	"fmt"
	"image"
	"strings"
)

// WatermarkKind selects how a watermark is applied.
type WatermarkKind string

const (
	WatermarkText  WatermarkKind = "text"
	WatermarkImage WatermarkKind = "image"
)

// ThumbnailSpec describes the thumbnail generated next to every committed image.
type ThumbnailSpec struct {
	Enabled bool
	Width   int
	Height  int
}

func (s ThumbnailSpec) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %dx%d", s.Width, s.Height)
	}
	return nil
}

// WatermarkSpec describes the watermark stamped onto committed images.
// Content is the text to draw for WatermarkText and the overlay file for WatermarkImage.
type WatermarkSpec struct {
	Enabled  bool
	Kind     WatermarkKind
	Content  string
	Position image.Point
	FontSize float64
}

func (s WatermarkSpec) Validate() error {
	if !s.Enabled {
		return nil
	}
	switch s.Kind {
	case WatermarkText, WatermarkImage:
		return nil
	default:
		return fmt.Errorf("unknown watermark kind %q", s.Kind)
	}
}

func (s WatermarkSpec) active() bool {
	return s.Enabled && strings.TrimSpace(s.Content) != ""
}

// Renderable is a processed image that has not been written yet.
type Renderable interface {
	Save(path string) error
}

// Processor is the image-processing backend used by the pipeline.
type Processor interface {
	// Thumbnail scales and center-crops src to exactly width x height.
	Thumbnail(src string, width, height int) (Renderable, error)
	// DrawText renders text with its top-left corner at at.
	DrawText(src, text string, at image.Point, size float64) (Renderable, error)
	// Composite draws the overlay image onto src at at.
	Composite(src, overlay string, at image.Point) (Renderable, error)
}

// Recorder observes pipeline stages.
type Recorder interface {
	Stage(stage string, ok bool)
	Duration(seconds float64)
}

type nopRecorder struct{}

func (nopRecorder) Stage(string, bool) {}
func (nopRecorder) Duration(float64)   {}
