package imagerender

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder

	"github.com/local/img2pdf/internal/filetype"
	"github.com/local/img2pdf/internal/layout"
)

// Image types understood by the document writer
const (
	TypeJPG = "JPG"
	TypePNG = "PNG"
)

// UnreadableImageError is returned when a staged file cannot be decoded.
type UnreadableImageError struct {
	Path string
	Err  error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("cannot decode image %s: %v", e.Path, e.Err)
}

func (e *UnreadableImageError) Unwrap() error { return e.Err }

// Page is a source image transformed for placement: upright pixels encoded in
// memory plus the size it occupies on the page.
type Page struct {
	Name        string
	Source      string
	Data        []byte
	ImageType   string
	PixelWidth  int // after rotation
	PixelHeight int
	Layout      layout.PageLayout
}

// Renderer turns staged files into pages. Staged files are only read.
type Renderer struct {
	detector *filetype.Detector
	geometry layout.Geometry
	quality  int
}

// New creates a renderer fitting images into g. quality is used when a
// rotated JPEG has to be re-encoded.
func New(g layout.Geometry, quality int) *Renderer {
	if quality < 1 || quality > 100 {
		quality = 90
	}
	return &Renderer{detector: filetype.New(), geometry: g, quality: quality}
}

// Render decodes the image at path, turns landscape sources by 90 degrees and
// computes the placed size. Any read or decode failure is an *UnreadableImageError.
func (r *Renderer) Render(path string) (Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, &UnreadableImageError{Path: path, Err: err}
	}

	info := r.detector.Detect(path, data)
	if !info.Supported {
		return Page{}, &UnreadableImageError{Path: path, Err: fmt.Errorf("unsupported content %s", info.MIMEType)}
	}
	if info.Misnamed {
		log.Info().Str("file", path).Str("mime", info.MIMEType).Msg("extension does not match content, using content")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Page{}, &UnreadableImageError{Path: path, Err: err}
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Page{}, &UnreadableImageError{Path: path, Err: fmt.Errorf("empty image")}
	}

	pl := layout.Fit(bounds.Dx(), bounds.Dy(), r.geometry)
	if pl.Rotated {
		// counter-clockwise, the same turn PIL's rotate(90) makes
		img = imaging.Rotate90(img)
	}

	page := Page{
		Name:        filepath.Base(path),
		Source:      path,
		PixelWidth:  img.Bounds().Dx(),
		PixelHeight: img.Bounds().Dy(),
		Layout:      pl,
	}

	switch {
	case info.IsJPEG() && !pl.Rotated:
		page.Data = data
		page.ImageType = TypeJPG
	case info.IsJPEG():
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.quality)); err != nil {
			return Page{}, fmt.Errorf("encode %s: %w", path, err)
		}
		page.Data = buf.Bytes()
		page.ImageType = TypeJPG
	default:
		// 8-bit, non-interlaced PNG is what the writer embeds reliably
		if _, ok := img.(*image.NRGBA); !ok {
			img = imaging.Clone(img)
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return Page{}, fmt.Errorf("encode %s: %w", path, err)
		}
		page.Data = buf.Bytes()
		page.ImageType = TypePNG
	}

	log.Debug().
		Str("file", path).
		Str("format", format).
		Int("width", page.PixelWidth).
		Int("height", page.PixelHeight).
		Bool("rotated", pl.Rotated).
		Float64("render_width", pl.Width).
		Float64("render_height", pl.Height).
		Float64("ratio", pl.Ratio()).
		Str("type", page.ImageType).
		Msg("rendered image")

	return page, nil
}
