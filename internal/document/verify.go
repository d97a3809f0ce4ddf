package document

import (
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfigDir sync.Once

// PageCount reads back a written PDF with pdfcpu and returns its page count.
// It is the default Verifier.
func PageCount(path string) (int, error) {
	// pdfcpu would otherwise create a config dir under the user's home
	disableConfigDir.Do(api.DisableConfigDir)

	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
