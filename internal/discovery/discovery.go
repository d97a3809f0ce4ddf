// Package discovery turns command-line inputs into candidate paths.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/local/img2pdf/internal/storage"
)

// MissingFileError means an explicitly named input does not exist or is not
// a regular file (or, for directories, cannot be read). It aborts the run.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file or directory not found: %s (%v)", e.Path, e.Err)
	}
	return fmt.Sprintf("file or directory not found: %s", e.Path)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// Walk lists every regular file below dir, recursively, in lexical order.
// No extension filtering happens here. Symlinks to regular files are listed;
// symlinked directories are not followed.
func Walk(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &MissingFileError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &MissingFileError{Path: dir, Err: fmt.Errorf("not a directory")}
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &MissingFileError{Path: p, Err: err}
		}
		switch {
		case d.Type().IsRegular():
			files = append(files, p)
		case d.Type()&fs.ModeSymlink != 0:
			if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
				files = append(files, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CheckFiles verifies each explicitly named file exists and is regular.
// Remote references are left to staging.
func CheckFiles(paths []string) error {
	for _, p := range paths {
		if storage.IsRemote(p) {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return &MissingFileError{Path: p, Err: err}
		}
		if !info.Mode().IsRegular() {
			return &MissingFileError{Path: p, Err: fmt.Errorf("not a regular file")}
		}
	}
	return nil
}

// Collect expands directories then appends explicit files, the order the
// pages will appear in. It fails on the first missing input.
func Collect(dirs, files []string) ([]string, error) {
	var out []string
	for _, d := range dirs {
		found, err := Walk(d)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if err := CheckFiles(files); err != nil {
		return nil, err
	}
	return append(out, files...), nil
}
