// Package main provides the cueconv CLI, which converts result workbooks to
// CUE text without the web server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/cuetext/internal/config"
	"github.com/JonMunkholm/cuetext/internal/core"
	_ "github.com/JonMunkholm/cuetext/internal/core/pipelines" // Register all pipelines
	"github.com/JonMunkholm/cuetext/internal/logging"
	"github.com/JonMunkholm/cuetext/internal/notebook"
	"github.com/JonMunkholm/cuetext/internal/sheet"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type convertFlags struct {
	pipeline string
	outDir   string
	outName  string
	backend  string
	quiet    bool
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "cueconv",
		Short:         "Convert sports result workbooks into CUE text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newConvertCmd(), newPipelinesCmd(), newTemplatesCmd())
	return root
}

func newConvertCmd() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert [input.xlsx]",
		Short: "Convert one workbook and print the CUE text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runConvert(cmd.Context(), cmd.OutOrStdout(), args[0], f)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), core.FormatUserError(err))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&f.pipeline, "pipeline", "p", "A", "Pipeline: A (voetbal) or B (overig)")
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", ".", "Directory for the output file")
	cmd.Flags().StringVar(&f.outName, "out-name", "", "Output file name (default: the pipeline's name)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "Conversion backend: native or notebook (default: from config)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Only print the written file paths")
	return cmd
}

func runConvert(ctx context.Context, w io.Writer, input string, f convertFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p, ok := core.Get(f.pipeline)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownPipeline, f.pipeline)
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	eng, err := engineFor(p, f.backend)
	if err != nil {
		return err
	}

	opts := core.Options{}
	if f.outName != "" {
		opts[core.OptOutName] = f.outName
	}

	res, err := eng.Convert(ctx, core.Input{Path: input, Options: opts, OutputDir: f.outDir})
	if err != nil {
		slog.Debug("conversion failed", "pipeline", p.Key, "input", input, "error", err)
		return err
	}
	slog.Info("converted", "pipeline", p.Key, "input", input, "attachments", len(res.Attachments))

	if !f.quiet {
		fmt.Fprintln(w, res.TextOutput)
	}
	for _, a := range res.Attachments {
		fmt.Fprintln(w, a.Path)
	}
	return nil
}

// engineFor returns the native engine unless the notebook backend is
// selected by flag or configuration.
func engineFor(p core.Pipeline, backend string) (core.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Convert.Backend = backend
	}

	switch {
	case cfg.Convert.NativeBackend():
		return core.NativeEngine{Pipeline: p}, nil
	case cfg.Convert.Backend == config.BackendNotebook:
		return notebook.Factory(cfg.Convert)(p), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", core.ErrBackendFailed, cfg.Convert.Backend)
}

func newPipelinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List the registered pipelines",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range core.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", p.Key, p.Label, p.DefaultOutName, filepath.Base(p.Notebook))
			}
		},
	}
}

func newTemplatesCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Write the blank input workbooks served under /static/templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTemplates(cmd.OutOrStdout(), outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", filepath.Join("static", "templates"), "Directory for the template workbooks")
	return cmd
}

func writeTemplates(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, p := range core.All() {
		if p.Template == "" {
			continue
		}
		path := filepath.Join(dir, p.Template)
		if err := writeTemplate(path, p); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.Key, err)
		}
		fmt.Fprintln(w, path)
	}
	return nil
}

func writeTemplate(path string, p core.Pipeline) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return sheet.WriteTemplate(f, p.Label, p.TemplateHeader)
}
