package filetype

import (
	"os"
	"strings"
)

// AcceptedExtensions are the suffixes an input must end with to be processed.
var AcceptedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif"}

// Filter decides which candidate paths are eligible inputs.
type Filter struct {
	IgnoreCase bool
}

// IsEligible applies the default, case-sensitive filter.
func IsEligible(path string) bool { return Filter{}.Eligible(path) }

// Eligible reports whether path exists, is a regular file and carries an
// accepted image suffix. Directories are never eligible.
func (f Filter) Eligible(path string) bool {
	if !f.HasAcceptedSuffix(path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// HasAcceptedSuffix checks only the name. Remote references are filtered with it
// since their existence is only known once fetched.
func (f Filter) HasAcceptedSuffix(name string) bool {
	if f.IgnoreCase {
		name = strings.ToLower(name)
	}
	for _, ext := range AcceptedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
