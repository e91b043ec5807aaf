package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/app"
	"github.com/joelkehle/intelbrief/internal/config"
	"github.com/joelkehle/intelbrief/internal/logger"
	"github.com/joelkehle/intelbrief/internal/research"
	"github.com/joelkehle/intelbrief/internal/store"
)

// exitError carries a message printed verbatim and the process exit code.
// Anything else, such as a flag or argument error from cobra, exits 2.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func setupError(err error) error { return &exitError{code: 2, err: err} }

// newProviders is swapped in tests.
var newProviders = app.NewProviders

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	cancel()
	os.Exit(exitCode(err, os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	var exit *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exit):
		fmt.Fprintln(stderr, err)
		return exit.code
	default:
		fmt.Fprintln(stderr, err)
		return 2
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "brief-research",
		Short:         "Generate and read company intelligence briefs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (optional)")
	root.AddCommand(newRunCmd(&configFile), newGetCmd(&configFile))
	return root
}

type runOptions struct {
	in            research.CompanyInput
	save          bool
	out           string
	withMeta      bool
	noCompetitors bool
}

func newRunCmd(configFile *string) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Research a company and print its brief as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return setupError(err)
			}
			if opts.noCompetitors {
				cfg.Pipeline.CompetitorsEnabled = false
			}
			log, err := logger.New(cfg.Log.Level, "console")
			if err != nil {
				return setupError(err)
			}
			defer func() { _ = log.Sync() }()

			if err := runBrief(cmd.Context(), cfg, log, opts, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
				log.Debug("run failed", zap.Error(err))
				var exit *exitError
				if errors.As(err, &exit) {
					return err
				}
				return &exitError{code: 1, err: fmt.Errorf("failed to generate report (%s)", research.ErrorCode(err))}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.in.Name, "name", "", "Company name")
	f.StringVar(&opts.in.Website, "website", "", "Company website, e.g. acme-logistik.de")
	f.StringVar(&opts.in.Industry, "industry", "", "Industry hint (optional)")
	f.StringVar(&opts.in.Headquarters.City, "city", "", "Headquarters city hint (optional)")
	f.StringVar(&opts.in.Headquarters.Country, "country", "", "Headquarters country hint (optional)")
	f.BoolVar(&opts.save, "save", false, "Persist the brief and print its slug to stderr")
	f.StringVar(&opts.out, "out", "", "Write the result JSON here instead of stdout")
	f.BoolVar(&opts.withMeta, "metadata", false, "Emit the full result with run metadata")
	f.BoolVar(&opts.noCompetitors, "no-competitors", false, "Skip competitor discovery")
	return cmd
}

func runBrief(ctx context.Context, cfg *config.Config, log *zap.Logger, opts runOptions, stdout, stderr io.Writer) error {
	providers, err := newProviders(cfg)
	if err != nil {
		return setupError(err)
	}
	pipeline, err := app.NewPipeline(cfg, providers, log)
	if err != nil {
		return setupError(err)
	}

	res, err := pipeline.RunWithProgress(ctx, opts.in, func(stage, message string) {
		fmt.Fprintf(stderr, "[%s] %s\n", stage, message)
	})
	if err != nil {
		return err
	}

	if opts.save {
		storage, err := app.OpenStorage(cfg, log)
		if err != nil {
			return err
		}
		defer storage.Close()
		slug, err := storage.Store.Save(ctx, res.Brief)
		if err != nil {
			return fmt.Errorf("save brief: %w", err)
		}
		fmt.Fprintf(stderr, "saved as %s\n", slug)
	}

	var payload any = res.Brief
	if opts.withMeta {
		payload = res
	}
	return emit(payload, opts.out, stdout)
}

func newGetCmd(configFile *string) *cobra.Command {
	var (
		fresh bool
		out   string
	)
	cmd := &cobra.Command{
		Use:   "get <slug>",
		Short: "Print a stored brief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(*configFile)
			if err != nil {
				return setupError(err)
			}
			if err := cfg.ValidateStorage(); err != nil {
				return setupError(fmt.Errorf("invalid configuration: %w", err))
			}
			log, err := logger.New(cfg.Log.Level, "console")
			if err != nil {
				return setupError(err)
			}
			defer func() { _ = log.Sync() }()

			storage, err := app.OpenStorage(cfg, log)
			if err != nil {
				return setupError(err)
			}
			defer storage.Close()
			brief, err := storage.Store.GetBySlug(cmd.Context(), args[0], fresh)
			if errors.Is(err, store.ErrNotFound) {
				return &exitError{code: 1, err: fmt.Errorf("brief %q not found", args[0])}
			}
			if err != nil {
				return &exitError{code: 1, err: fmt.Errorf("failed to load brief: %w", err)}
			}
			return emit(brief, out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Read from the database even when cached")
	cmd.Flags().StringVar(&out, "out", "", "Write the brief JSON here instead of stdout")
	return cmd
}

func emit(payload any, out string, stdout io.Writer) error {
	blob, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	blob = append(blob, '\n')
	if out == "" {
		_, err = stdout.Write(blob)
		return err
	}
	if err := writeFileAtomic(out, blob); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

func writeFileAtomic(path string, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
