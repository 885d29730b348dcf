package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"jan-server/services/attachment-api/internal/config"
	"jan-server/services/attachment-api/internal/domain/derivation"
)

const defaultFontSize = 16

// Processor implements derivation.Processor on top of disintegration/imaging.
// Text is rendered with the bundled Go Regular font.
type Processor struct {
	font        *opentype.Font
	jpegQuality int
	textColor   color.Color
}

func NewProcessor(cfg *config.Config) (*Processor, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse watermark font: %w", err)
	}
	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &Processor{
		font:        f,
		jpegQuality: quality,
		textColor:   color.NRGBA{R: 255, G: 255, B: 255, A: 200},
	}, nil
}

// Image is a processed image waiting to be written.
type Image struct {
	img     image.Image
	quality int
}

func (i *Image) Bounds() image.Rectangle { return i.img.Bounds() }

// Save encodes the image in the format implied by the path extension. The
// bytes go to a sibling temp file that is renamed over path, so a failed
// encode never leaves a truncated file at path.
func (i *Image) Save(path string) (err error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := imaging.Encode(tmp, i.img, format, imaging.JPEGQuality(i.quality)); err != nil {
		return errors.Join(fmt.Errorf("encode %s: %w", path, err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (p *Processor) open(src string) (image.Image, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	return img, nil
}

func (p *Processor) Thumbnail(src string, width, height int) (derivation.Renderable, error) {
	img, err := p.open(src)
	if err != nil {
		return nil, err
	}
	return &Image{img: imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), quality: p.jpegQuality}, nil
}

func (p *Processor) DrawText(src, text string, at image.Point, size float64) (derivation.Renderable, error) {
	img, err := p.open(src)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = defaultFontSize
	}
	face, err := opentype.NewFace(p.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("load font face: %w", err)
	}
	defer face.Close()

	dst := imaging.Clone(img)
	// at is the top-left corner; the drawer wants the baseline
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(p.textColor),
		Face: face,
		Dot:  fixed.P(dst.Bounds().Min.X+at.X, dst.Bounds().Min.Y+at.Y+ascent),
	}
	d.DrawString(text)
	return &Image{img: dst, quality: p.jpegQuality}, nil
}

func (p *Processor) Composite(src, overlay string, at image.Point) (derivation.Renderable, error) {
	img, err := p.open(src)
	if err != nil {
		return nil, err
	}
	mark, err := p.open(overlay)
	if err != nil {
		return nil, err
	}
	return &Image{img: imaging.Overlay(img, mark, at, 1.0), quality: p.jpegQuality}, nil
}

var _ derivation.Processor = (*Processor)(nil)
