// Package cli wires configuration, logging and the pipeline behind the
// img2pdf command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/img2pdf/internal/config"
	"github.com/local/img2pdf/internal/discovery"
	"github.com/local/img2pdf/internal/document"
	"github.com/local/img2pdf/internal/filetype"
	"github.com/local/img2pdf/internal/imagerender"
	"github.com/local/img2pdf/internal/layout"
	"github.com/local/img2pdf/internal/logger"
	"github.com/local/img2pdf/internal/metrics"
	"github.com/local/img2pdf/internal/orchestrator"
	"github.com/local/img2pdf/internal/printer"
	"github.com/local/img2pdf/internal/staging"
	"github.com/local/img2pdf/internal/storage"
)

type flags struct {
	directories []string
	files       []string
	out         string
	print       bool
	ignoreCase  bool
	verbose     bool
}

// NewRootCommand builds the img2pdf command. cfg supplies defaults that the
// flags override.
func NewRootCommand(cfg config.Config) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "img2pdf [flags] [images...]",
		Short: "Convert image files to a single A4 pdf document",
		Long: `img2pdf places every readable image (jpg, jpeg, png, gif, bmp, tiff) on its
own A4 page, in the order given, and writes a single pdf file.
Landscape images are turned to portrait. Originals are never modified.
Positional arguments may name image files or directories to search.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(f.directories) == 0 && len(f.files) == 0 {
				return cmd.Usage()
			}
			return run(cmd, cfg, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.directories, "directories", "d", nil, "search image files in the given directories (recursive)")
	fl.StringArrayVarP(&f.files, "files", "f", nil, "image file names")
	fl.StringVarP(&f.out, "out", "o", cfg.Output.Path, "full path of the pdf file")
	fl.BoolVar(&f.print, "printer", false, "print the pdf file after it was created")
	fl.BoolVar(&f.ignoreCase, "ignore-case", cfg.Filter.IgnoreCase, "match image extensions case-insensitively")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(cmd *cobra.Command, cfg config.Config, f flags, args []string) error {
	level := cfg.Logging.Level
	if f.verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Options{
		Level:        level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		Console:      cmd.ErrOrStderr(),
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomURL:     cfg.Axiom.URL,
		AxiomTimeout: cfg.Axiom.FlushTimeout,
	}); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "logger init failed: %v\n", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "log forwarding failed: %v\n", err)
		}
	}()

	metrics.Init()
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Str("file", cfg.Metrics.Textfile).Msg("metrics textfile not written")
		}
	}()

	if n := staging.Sweep(cfg.Staging.Prefix, cfg.Staging.SweepAge); n > 0 {
		log.Info().Int("removed", n).Msg("stale staging directories removed")
	}

	dirs, files := splitArgs(f.directories, f.files, args)
	candidates, err := discovery.Collect(dirs, files)
	if err != nil {
		return err
	}

	geometry := layout.DefaultGeometry().WithContent(cfg.Page.ContentWidth, cfg.Page.ContentHeight)
	orch := orchestrator.New(orchestrator.Dependencies{
		Geometry: geometry,
		Renderer: imagerender.New(geometry, cfg.Render.JPEGQuality),
		Filter:   filetype.Filter{IgnoreCase: f.ignoreCase},
		Fetcher: storage.NewRemote(storage.Options{
			Region:          cfg.Remote.Region,
			AccessKeyID:     cfg.Remote.AccessKeyID,
			SecretAccessKey: cfg.Remote.SecretAccessKey,
			S3Endpoint:      cfg.Remote.S3Endpoint,
			HTTPTimeout:     cfg.Remote.HTTPTimeout,
		}),
		StagingPrefix: cfg.Staging.Prefix,
		Verify:        cfg.Output.Verify,
		Print:         f.print,
		Printer:       printer.NewCommand(cfg.Printer.Command, cfg.Printer.Timeout),
		Reporter:      cmd.OutOrStdout(),
	})

	res := orch.Run(cmd.Context(), candidates, f.out)
	var buildErr *document.BuildError
	if errors.As(res.Err, &buildErr) || errors.Is(res.Err, context.Canceled) {
		return res.Err
	}
	return nil
}

// splitArgs sorts positional arguments into directories and files, so both
// "-d a b" and "-f x y" accept several values like their flag forms.
func splitArgs(dirs, files, args []string) ([]string, []string) {
	dirs = append([]string(nil), dirs...)
	files = append([]string(nil), files...)
	for _, a := range args {
		if info, err := os.Stat(a); err == nil && info.IsDir() {
			dirs = append(dirs, a)
			continue
		}
		files = append(files, a)
	}
	return dirs, files
}

// Execute runs the command line and returns the process exit code. A missing
// input or a failed document build exits 1; runs that found nothing to add
// exit 0.
func Execute(cfg config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(cfg)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}
