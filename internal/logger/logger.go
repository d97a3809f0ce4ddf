package logger

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "sync"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options defines logger initialization parameters.
type Options struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
    Console      io.Writer // defaults to os.Stderr

    // Axiom
    SendToAxiom  bool
    AxiomAPIKey  string
    AxiomOrgID   string
    AxiomDataset string
    AxiomURL     string        // empty uses the Axiom cloud endpoint
    AxiomTimeout time.Duration // per-ingest deadline
}

var (
    global zerolog.Logger
    ax     *axiomSink
)

// Init sets up global logger: optional rotating file, console on stderr, optional Axiom forwarding.
// Stdout is left to the user-facing progress lines.
func Init(opts Options) error {
    if ax != nil { _ = Close() }

    // Ensure log directory exists
    if opts.File != "" {
        if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
            return fmt.Errorf("create logs dir: %w", err)
        }
    }

    // Build writers
    var writers []io.Writer

    if opts.File != "" {
        writers = append(writers, &lumberjack.Logger{
            Filename:   opts.File,
            MaxSize:    opts.MaxSizeMB,
            MaxBackups: opts.MaxBackups,
            MaxAge:     opts.MaxAgeDays,
            Compress:   opts.Compress,
        })
    }

    console := opts.Console
    if console == nil { console = os.Stderr }
    if opts.Pretty {
        cw := zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}
        writers = append(writers, cw)
    } else {
        writers = append(writers, console)
    }

    // Optional Axiom writer (info+)
    if opts.SendToAxiom && opts.AxiomAPIKey != "" {
        sink, err := newAxiomSink(opts)
        if err != nil {
            // continue without Axiom
            fmt.Fprintf(console, "Axiom disabled: %v\n", err)
        } else {
            ax = sink
            writers = append(writers, sink)
        }
    }

    out := io.MultiWriter(writers...)

    // Global zerolog config
    zerolog.TimeFieldFormat = time.RFC3339
    lvl, err := zerolog.ParseLevel(opts.Level)
    if err != nil || opts.Level == "" {
        lvl = zerolog.WarnLevel
    }

    global = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
    log.Logger = global
    return nil
}

// Close ships events still buffered for Axiom. The error is only worth
// reporting; local logging is unaffected.
func Close() error {
    if ax == nil { return nil }
    err := ax.Close()
    ax = nil
    return err
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }

// WithRun returns a child of the global logger tagged with the run id.
// Before Init it derives from zerolog's default logger.
func WithRun(runID string) zerolog.Logger {
    return log.With().Str("run_id", runID).Logger()
}

// axiomSink collects the info+ events of one run and ships them in batches.
// Whatever is left is sent by Close, so a short run loses nothing.
type axiomSink struct {
    client  *axiom.Client
    dataset string
    timeout time.Duration

    mu    sync.Mutex
    batch []axiom.Event
    err   error
}

const axiomBatchSize = 200

func newAxiomSink(opts Options) (*axiomSink, error) {
    dataset := opts.AxiomDataset
    if dataset == "" { dataset = "dev_img2pdf" }
    copts := []axiom.Option{axiom.SetNoEnv(), axiom.SetToken(opts.AxiomAPIKey)}
    if opts.AxiomOrgID != "" { copts = append(copts, axiom.SetOrganizationID(opts.AxiomOrgID)) }
    if opts.AxiomURL != "" { copts = append(copts, axiom.SetURL(opts.AxiomURL)) }
    c, err := axiom.NewClient(copts...)
    if err != nil { return nil, err }
    timeout := opts.AxiomTimeout
    if timeout <= 0 { timeout = 15 * time.Second }
    return &axiomSink{client: c, dataset: dataset, timeout: timeout}, nil
}

// Write takes one zerolog JSON line. Debug lines stay local.
func (s *axiomSink) Write(p []byte) (int, error) {
    var ev map[string]any
    if err := json.Unmarshal(p, &ev); err != nil {
        ev = map[string]any{"message": string(p), "level": "info"}
    }
    if lvl, _ := ev["level"].(string); lvl == "debug" || lvl == "trace" {
        return len(p), nil
    }
    ev["service"] = "img2pdf"
    if t, ok := ev[zerolog.TimestampFieldName]; ok {
        ev[ingest.TimestampField] = t
        delete(ev, zerolog.TimestampFieldName)
    }

    s.mu.Lock()
    defer s.mu.Unlock()
    s.batch = append(s.batch, axiom.Event(ev))
    if len(s.batch) >= axiomBatchSize {
        s.flushLocked()
    }
    return len(p), nil
}

func (s *axiomSink) flushLocked() {
    if len(s.batch) == 0 { return }
    ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
    defer cancel()
    if _, err := s.client.IngestEvents(ctx, s.dataset, s.batch); err != nil && s.err == nil {
        s.err = fmt.Errorf("axiom ingest: %w", err)
    }
    s.batch = s.batch[:0]
}

// Close sends the remaining events and reports the first ingest failure.
func (s *axiomSink) Close() error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.flushLocked()
    return s.err
}
