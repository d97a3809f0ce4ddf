package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "img2pdf.log")

	require.NoError(t, Init(Options{Level: "info", File: file, MaxSizeMB: 1, Console: &console}))
	defer Close()

	l := WithRun("run-1")
	l.Info().Str("file", "a.jpg").Msg("staged")

	assert.Contains(t, console.String(), `"run_id":"run-1"`)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"staged"`)
}

func TestInitDefaultsToWarn(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Init(Options{Level: "bogus", Console: &console}))
	defer Close()

	assert.Equal(t, zerolog.WarnLevel, Get().GetLevel())
	Get().Info().Msg("hidden")
	assert.Empty(t, console.String())
}

func TestAxiomForwardingFlushesOnClose(t *testing.T) {
	type request struct {
		path, auth, encoding string
		events               []map[string]any
	}
	var mu sync.Mutex
	var got []request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zr, err := zstd.NewReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer zr.Close()
		req := request{path: r.URL.Path, auth: r.Header.Get("Authorization"), encoding: r.Header.Get("Content-Encoding")}
		dec := json.NewDecoder(zr)
		for {
			var ev map[string]any
			if err := dec.Decode(&ev); err != nil {
				break
			}
			req.events = append(req.events, ev)
		}
		mu.Lock()
		got = append(got, req)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ingested":` + strconv.Itoa(len(req.events)) + `,"failed":0,"failures":[]}`))
	}))
	defer srv.Close()

	var console bytes.Buffer
	require.NoError(t, Init(Options{
		Level:        "debug",
		Console:      &console,
		SendToAxiom:  true,
		AxiomAPIKey:  "xaat-test-token",
		AxiomDataset: "test_img2pdf",
		AxiomURL:     srv.URL,
		AxiomTimeout: 5 * time.Second,
	}))

	l := WithRun("run-7")
	l.Debug().Msg("not forwarded")
	l.Info().Str("file", "a.jpg").Msg("staged")
	l.Warn().Msg("skipped")

	mu.Lock()
	assert.Empty(t, got, "events are buffered until Close")
	mu.Unlock()

	require.NoError(t, Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "/v1/datasets/test_img2pdf/ingest", got[0].path)
	assert.Equal(t, "Bearer xaat-test-token", got[0].auth)
	assert.Equal(t, "zstd", got[0].encoding)
	require.Len(t, got[0].events, 2)
	for _, ev := range got[0].events {
		assert.Equal(t, "run-7", ev["run_id"])
		assert.Equal(t, "img2pdf", ev["service"])
		assert.Contains(t, ev, "_time")
	}
	assert.Equal(t, "staged", got[0].events[0]["message"])
	assert.Equal(t, "warn", got[0].events[1]["level"])
	assert.Contains(t, console.String(), "not forwarded")
}

func TestAxiomIngestFailureReportedByClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	require.NoError(t, Init(Options{
		Level:        "info",
		Console:      &bytes.Buffer{},
		SendToAxiom:  true,
		AxiomAPIKey:  "xaat-test-token",
		AxiomURL:     srv.URL,
		AxiomTimeout: 5 * time.Second,
	}))
	l := WithRun("run-8")
	l.Error().Msg("boom")

	assert.ErrorContains(t, Close(), "axiom ingest")
	assert.NoError(t, Close(), "second close is a no-op")
}
