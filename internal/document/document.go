// Package document assembles rendered pages into a single PDF file.
//
// A Document is an ordered list of entries, each either an image or a page
// break. Build replays them onto an A4 page with zero margins: an image opens
// a page if none is open and a break closes it, so a trailing break never
// produces a blank page. The file is written beside the target, verified and
// then renamed into place; a failed build leaves no artifact behind.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/local/img2pdf/internal/imagerender"
	"github.com/local/img2pdf/internal/layout"
)

// ErrNoPages is returned by Build when no image entry was added.
var ErrNoPages = errors.New("no pages to write")

// BuildError wraps a failure to produce or commit the output file.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// EntryKind tells image entries from page breaks.
type EntryKind int

const (
	EntryImage EntryKind = iota
	EntryPageBreak
)

func (k EntryKind) String() string {
	if k == EntryPageBreak {
		return "page_break"
	}
	return "image"
}

// Entry is one element of the content stream.
type Entry struct {
	Kind EntryKind
	Page imagerender.Page // set for EntryImage
}

// Placement records where an image was drawn.
type Placement struct {
	Page    int // 1-based
	Name    string
	X, Y    float64
	Width   float64
	Height  float64
	Rotated bool
}

// Verifier checks a written file and returns its page count.
type Verifier func(path string) (int, error)

// Document is the accumulating content of one output file.
type Document struct {
	path       string
	geometry   layout.Geometry
	verify     Verifier
	entries    []Entry
	placements []Placement
}

// New creates an empty document targeting path.
func New(path string, g layout.Geometry) *Document {
	return &Document{path: path, geometry: g}
}

// WithVerifier sets the post-write check; nil skips verification.
func (d *Document) WithVerifier(v Verifier) *Document {
	d.verify = v
	return d
}

// Path is the output path.
func (d *Document) Path() string { return d.path }

// AddPage appends the image followed by a page break.
func (d *Document) AddPage(p imagerender.Page) {
	d.entries = append(d.entries, Entry{Kind: EntryImage, Page: p}, Entry{Kind: EntryPageBreak})
}

// Entries returns the content stream in order.
func (d *Document) Entries() []Entry { return d.entries }

// ImageCount is the number of image entries.
func (d *Document) ImageCount() int {
	n := 0
	for _, e := range d.entries {
		if e.Kind == EntryImage {
			n++
		}
	}
	return n
}

// Placements is filled by a successful Build.
func (d *Document) Placements() []Placement { return d.placements }

// Build writes the document and returns the number of pages.
// With no image entries it returns ErrNoPages, writes nothing and removes a
// stale file at the output path. Other failures are *BuildError.
func (d *Document) Build() (int, error) {
	if d.ImageCount() == 0 {
		if err := os.Remove(d.path); err == nil {
			log.Info().Str("path", d.path).Msg("removed stale output file")
		}
		return 0, ErrNoPages
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, &BuildError{Path: d.path, Err: err}
	}

	pdf, placements := d.render()
	if pdf.Err() {
		return 0, &BuildError{Path: d.path, Err: pdf.Error()}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return 0, &BuildError{Path: d.path, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		return 0, &BuildError{Path: d.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return 0, &BuildError{Path: d.path, Err: err}
	}

	pages := placements[len(placements)-1].Page
	if d.verify != nil {
		n, err := d.verify(tmpPath)
		if err != nil {
			return 0, &BuildError{Path: d.path, Err: fmt.Errorf("verify: %w", err)}
		}
		if n != pages {
			return 0, &BuildError{Path: d.path, Err: fmt.Errorf("verify: wrote %d pages, file has %d", pages, n)}
		}
	}

	if err := os.Rename(tmpPath, d.path); err != nil {
		return 0, &BuildError{Path: d.path, Err: err}
	}
	committed = true
	d.placements = placements

	log.Debug().Str("path", d.path).Int("pages", pages).Msg("document written")
	return pages, nil
}

func (d *Document) render() (*gofpdf.Fpdf, []Placement) {
	g := d.geometry
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("img2pdf", true)

	var placements []Placement
	open := false
	page := 0
	for i, e := range d.entries {
		if e.Kind == EntryPageBreak {
			open = false
			continue
		}
		if !open {
			pdf.AddPage()
			open = true
			page++
		}

		name := fmt.Sprintf("img%d", i)
		opts := gofpdf.ImageOptions{ImageType: e.Page.ImageType, ReadDpi: false}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(e.Page.Data))

		w, h := e.Page.Layout.Width, e.Page.Layout.Height
		x := g.Padding + (g.ContentWidth-w)/2
		y := g.Padding
		pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
		if pdf.Err() {
			return pdf, nil
		}
		placements = append(placements, Placement{
			Page: page, Name: e.Page.Name, X: x, Y: y, Width: w, Height: h, Rotated: e.Page.Layout.Rotated,
		})
	}
	return pdf, placements
}
