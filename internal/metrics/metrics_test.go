package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndTextfile(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(pagesTotal.WithLabelValues("added"))
	IncPage("added")
	IncPage("added")
	IncPage("skipped")
	AddStaged(1024)
	ObserveRun("success", 250*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(pagesTotal.WithLabelValues("added")))

	out := filepath.Join(t.TempDir(), "img2pdf.prom")
	require.NoError(t, WriteTextfile(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.Contains(text, `img2pdf_pages_total{result="skipped"}`))
	assert.True(t, strings.Contains(text, `img2pdf_runs_total{outcome="success"}`))
	assert.True(t, strings.Contains(text, "img2pdf_run_duration_seconds_bucket"))
	assert.True(t, strings.Contains(text, "img2pdf_staged_bytes_total"))
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}
