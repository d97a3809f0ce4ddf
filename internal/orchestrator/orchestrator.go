package orchestrator

import (
    "context"
    "errors"
    "fmt"
    "io"
    "time"

    "github.com/google/uuid"

    "github.com/local/img2pdf/internal/document"
    "github.com/local/img2pdf/internal/filetype"
    "github.com/local/img2pdf/internal/imagerender"
    "github.com/local/img2pdf/internal/layout"
    logpkg "github.com/local/img2pdf/internal/logger"
    "github.com/local/img2pdf/internal/metrics"
    "github.com/local/img2pdf/internal/staging"
)

// State is the pipeline phase of one run.
type State int

const (
    Idle State = iota
    Filtering
    Staging
    LayingOut
    Assembling
    Succeeded
    Failed
)

func (s State) String() string {
    switch s {
    case Idle:
        return "idle"
    case Filtering:
        return "filtering"
    case Staging:
        return "staging"
    case LayingOut:
        return "laying_out"
    case Assembling:
        return "assembling"
    case Succeeded:
        return "succeeded"
    case Failed:
        return "failed"
    }
    return fmt.Sprintf("state(%d)", int(s))
}

// Printer sends a finished document to a printer. Best effort.
type Printer interface {
    Print(ctx context.Context, path string) bool
}

type Dependencies struct {
    Geometry      layout.Geometry
    Renderer      *imagerender.Renderer
    Filter        filetype.Filter
    Fetcher       staging.Fetcher // nil disables remote candidates
    StagingPrefix string
    Verify        bool
    Print         bool
    Printer       Printer
    Reporter      io.Writer // user-visible progress lines
}

// Result describes how a run ended.
type Result struct {
    RunID      string
    Success    bool
    OutputPath string
    Pages      int
    Skipped    []string
    State      State
    Err        error
}

type Orchestrator struct {
    deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
    if deps.Renderer == nil {
        deps.Renderer = imagerender.New(deps.Geometry, 0)
    }
    if deps.Reporter == nil {
        deps.Reporter = io.Discard
    }
    return &Orchestrator{deps: deps}
}

// Run filters and stages candidates, lays out every readable image on its own
// page and writes the document to outputPath. Unreadable images are reported
// and skipped. The staging directory is removed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, candidates []string, outputPath string) (res Result) {
    start := time.Now()
    res = Result{RunID: uuid.NewString(), OutputPath: outputPath, State: Idle}
    logger := logpkg.WithRun(res.RunID)
    logger.Debug().Int("candidates", len(candidates)).Str("output", outputPath).Msg("run started")

    defer func() {
        outcome := "success"
        switch {
        case res.Success:
        case errors.Is(res.Err, staging.ErrEmptyInput), errors.Is(res.Err, document.ErrNoPages):
            outcome = "soft_failure"
        default:
            outcome = "failure"
        }
        metrics.ObserveRun(outcome, time.Since(start))
        logger.Info().Str("state", res.State.String()).Int("pages", res.Pages).Int("skipped", len(res.Skipped)).
            Dur("duration", time.Since(start)).Msg("run finished")
    }()

    res.State = Filtering
    area := staging.New(staging.Options{
        Prefix:  o.deps.StagingPrefix,
        RunID:   res.RunID,
        Filter:  o.deps.Filter,
        Fetcher: o.deps.Fetcher,
    })
    defer func() {
        if err := area.Close(); err != nil {
            logger.Warn().Err(err).Msg("staging cleanup failed")
        }
    }()

    res.State = Staging
    files, err := area.Stage(ctx, candidates)
    for _, s := range area.Skipped() {
        o.report("Cannot access a file: %s", s.Source)
        res.Skipped = append(res.Skipped, s.Source)
        metrics.IncPage("skipped")
    }
    if err != nil {
        res.State = Failed
        res.Err = err
        if errors.Is(err, staging.ErrEmptyInput) {
            o.report("Error: %s!", err)
        } else {
            logger.Error().Err(err).Msg("staging failed")
        }
        return res
    }
    for _, f := range files {
        metrics.AddStaged(f.Size)
    }
    logger.Debug().Str("staging_dir", area.Dir()).Int("files", len(files)).Msg("inputs staged")

    res.State = LayingOut
    doc := document.New(outputPath, o.deps.Geometry)
    if o.deps.Verify {
        doc = doc.WithVerifier(document.PageCount)
    }
    for _, f := range files {
        if err := ctx.Err(); err != nil {
            res.State = Failed
            res.Err = err
            o.report("Pdf file was not created")
            return res
        }
        page, err := o.deps.Renderer.Render(f.Path)
        if err != nil {
            logger.Warn().Err(err).Str("file", f.Source).Msg("image skipped")
            o.report("Cannot access a file: %s", f.Source)
            res.Skipped = append(res.Skipped, f.Source)
            metrics.IncPage("skipped")
            continue
        }
        o.report("Adding %s to pdf document...", f.Name)
        doc.AddPage(page)
        o.report("OK")
        metrics.IncPage("added")
        logger.Debug().Str("file", f.Source).Bool("rotated", page.Layout.Rotated).
            Float64("width", page.Layout.Width).Float64("height", page.Layout.Height).Msg("page laid out")
    }

    res.State = Assembling
    pages, err := doc.Build()
    if err != nil {
        res.State = Failed
        res.Err = err
        if !errors.Is(err, document.ErrNoPages) {
            logger.Error().Err(err).Str("output", doc.Path()).Msg("document build failed")
        }
        o.report("Pdf file was not created")
        return res
    }

    res.State = Succeeded
    res.Success = true
    res.Pages = pages
    o.report("Pdf file was created successfully")

    if o.deps.Print && o.deps.Printer != nil {
        if !o.deps.Printer.Print(ctx, outputPath) {
            logger.Warn().Str("file", outputPath).Msg("document was not printed")
        }
    }
    return res
}

func (o *Orchestrator) report(format string, args ...any) {
    fmt.Fprintf(o.deps.Reporter, format+"\n", args...)
}
