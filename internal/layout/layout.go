// Package layout computes how a source image is placed on a fixed page.
//
// The fit is deliberately simple: landscape sources are turned upright, the
// image is scaled to the frame width and, if that overflows, clamped to the
// frame height. Nothing is padded; placement is the document's concern.
package layout

// A4 page size in points and the frame padding the content box sits in.
const (
	A4Width      = 595.28
	A4Height     = 841.89
	FramePadding = 6.0

	DefaultContentWidth  = 583.0
	DefaultContentHeight = 829.0
)

// Geometry is the usable frame images are fitted into.
type Geometry struct {
	PageWidth     float64
	PageHeight    float64
	Padding       float64
	ContentWidth  float64
	ContentHeight float64
}

// DefaultGeometry is an A4 page with zero margins and the 583x829 frame.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:     A4Width,
		PageHeight:    A4Height,
		Padding:       FramePadding,
		ContentWidth:  DefaultContentWidth,
		ContentHeight: DefaultContentHeight,
	}
}

// WithContent returns g with a different frame, keeping the page.
func (g Geometry) WithContent(width, height float64) Geometry {
	if width > 0 {
		g.ContentWidth = width
	}
	if height > 0 {
		g.ContentHeight = height
	}
	return g
}

// PageLayout is the render size of one image and whether it was turned.
type PageLayout struct {
	Width   float64
	Height  float64
	Rotated bool
}

// Ratio is height over width of the placed image.
func (p PageLayout) Ratio() float64 {
	if p.Width == 0 {
		return 0
	}
	return p.Height / p.Width
}

// Fit computes the layout for a w x h pixel source. w and h must be positive.
func Fit(w, h int, g Geometry) PageLayout {
	var out PageLayout
	if w > h {
		w, h = h, w
		out.Rotated = true
	}
	ratio := float64(h) / float64(w)

	out.Width = g.ContentWidth
	out.Height = out.Width * ratio
	if out.Height > g.ContentHeight {
		out.Height = g.ContentHeight
		out.Width = out.Height / ratio
	}
	return out
}
