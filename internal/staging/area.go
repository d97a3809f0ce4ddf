// Package staging copies eligible inputs into a private directory so the
// originals are never touched, and removes that directory when the run ends.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/local/img2pdf/internal/filetype"
	"github.com/local/img2pdf/internal/storage"
)

// ErrEmptyInput means nothing eligible was left to stage.
var ErrEmptyInput = errors.New("there are no files for processing")

// Fetcher downloads a remote reference into dst.
type Fetcher interface {
	Fetch(ctx context.Context, ref string, dst *os.File) (int64, error)
}

// File is one staged copy. Index is the 1-based position among eligible inputs.
type File struct {
	Index  int
	Name   string // base name of Source
	Source string
	Path   string
	Size   int64
}

// Skipped is an eligible candidate that could not be copied.
type Skipped struct {
	Source string
	Err    error
}

// Options configures an Area.
type Options struct {
	Prefix  string // temp dir name prefix, e.g. "img2pdf-"
	RunID   string
	Filter  filetype.Filter
	Fetcher Fetcher // nil disables remote references
}

// Area is the private working directory of one run.
type Area struct {
	opts    Options
	dir     string
	skipped []Skipped
}

// New returns an Area; no directory exists until Stage finds eligible input.
func New(opts Options) *Area {
	if opts.Prefix == "" {
		opts.Prefix = "img2pdf-"
	}
	return &Area{opts: opts}
}

// Dir is the staging directory, empty before Stage and after Close.
func (a *Area) Dir() string { return a.dir }

// Skipped lists eligible candidates whose copy failed during Stage.
func (a *Area) Skipped() []Skipped { return a.skipped }

// Stage filters candidates and copies the eligible ones, in order, into a
// fresh directory. Staged names carry the input position as a prefix, so
// same-named files from different directories are all kept.
func (a *Area) Stage(ctx context.Context, candidates []string) ([]File, error) {
	if a.dir != "" {
		return nil, fmt.Errorf("staging area %s already in use", a.dir)
	}

	var eligible []string
	for _, c := range candidates {
		if a.eligible(c) {
			eligible = append(eligible, c)
			continue
		}
		log.Debug().Str("run_id", a.opts.RunID).Str("file", c).Msg("not an eligible image")
	}
	if len(eligible) == 0 {
		return nil, ErrEmptyInput
	}

	pattern := a.opts.Prefix
	if a.opts.RunID != "" {
		pattern += a.opts.RunID + "-"
	}
	dir, err := os.MkdirTemp("", pattern+"*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	a.dir = dir

	files := make([]File, 0, len(eligible))
	for i, src := range eligible {
		name := baseName(src)
		dst := filepath.Join(dir, fmt.Sprintf("%04d_%s", i+1, name))
		n, err := a.copy(ctx, src, dst)
		if err != nil {
			_ = os.Remove(dst)
			log.Warn().Err(err).Str("run_id", a.opts.RunID).Str("file", src).Msg("staging copy failed")
			a.skipped = append(a.skipped, Skipped{Source: src, Err: err})
			continue
		}
		files = append(files, File{Index: i + 1, Name: name, Source: src, Path: dst, Size: n})
	}

	log.Debug().Str("run_id", a.opts.RunID).Str("dir", dir).Int("staged", len(files)).Int("failed", len(a.skipped)).Msg("staging complete")
	if len(files) == 0 {
		return nil, ErrEmptyInput
	}
	return files, nil
}

// Close removes the staging directory and everything in it.
func (a *Area) Close() error {
	if a.dir == "" {
		return nil
	}
	dir := a.dir
	a.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove staging dir %s: %w", dir, err)
	}
	return nil
}

func (a *Area) eligible(c string) bool {
	if storage.IsRemote(c) {
		return a.opts.Fetcher != nil && a.opts.Filter.HasAcceptedSuffix(remotePath(c))
	}
	return a.opts.Filter.Eligible(c)
}

func (a *Area) copy(ctx context.Context, src, dst string) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := a.fill(ctx, src, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", dst, cerr)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (a *Area) fill(ctx context.Context, src string, out *os.File) (int64, error) {
	if storage.IsRemote(src) {
		return a.opts.Fetcher.Fetch(ctx, src, out)
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return io.Copy(out, in)
}

// remotePath strips query and fragment so only the object path is matched.
func remotePath(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.Scheme == "s3" {
		return u.Host + u.Path
	}
	return u.Path
}

func baseName(src string) string {
	if storage.IsRemote(src) {
		return path.Base(remotePath(src))
	}
	return filepath.Base(src)
}
