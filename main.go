package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/olehluchkiv/chunksplit/internal/config"
	"github.com/olehluchkiv/chunksplit/internal/logging"
	"github.com/olehluchkiv/chunksplit/internal/manifest"
	"github.com/olehluchkiv/chunksplit/internal/pipeline"
	"github.com/olehluchkiv/chunksplit/internal/report"
	"github.com/olehluchkiv/chunksplit/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(stderr, "received %s, shutting down\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	d := config.Default()
	root := &cobra.Command{
		Use:   "chunksplit",
		Short: "Split oversized chunks of a chunk graph into bounded parts",
		Long: `chunksplit loads a chunk graph from a YAML/JSON manifest or builds one from a
Go module (one entry chunk per main package), splits every chunk holding more
modules than allowed, and relinks the new parts so loading order is preserved.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	pf.String("log-format", d.Log.Format, "log format (json, text)")
	pf.String("log-file", d.Log.File, "also append logs to this file")

	root.AddCommand(newSplitCmd(stderr), newServeCmd(stderr))
	return root
}

func addPartitionFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.Int("max-modules-per-chunk", d.MaxModulesPerChunk, "maximum number of modules per chunk")
	fs.Int("max-modules-per-entry", d.MaxModulesPerEntry, "modules moved into the first part of an entry chunk")
	fs.String("part-name", d.PartName, "name template for parts ([name], [n], [id])")
	fs.StringSlice("only", d.Only, "only split chunks whose name matches one of these globs")
	fs.Bool("overwrite-parents", d.OverwriteParents, "allow splitting chunks whose parents are outside the split set")
	fs.Bool("include-stdlib", d.IncludeStdlib, "count standard library packages as modules (Go modules only)")
	fs.String("filter", d.Filter, "package path prefix filter (Go modules only)")
}

func newSplitCmd(stderr io.Writer) *cobra.Command {
	var outPath, mermaidPath string
	cmd := &cobra.Command{
		Use:   "split <manifest-or-module>",
		Short: "Split chunks and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, logCleanup, err := setup(cmd, stderr)
			if err != nil {
				return err
			}
			defer logCleanup()

			out, cleanup, err := pipeline.Run(cmd.Context(), args[0], cfg, logger)
			defer cleanup()
			if err != nil {
				logger.Error("split failed", "error", err)
				return err
			}

			w := cmd.OutOrStdout()
			if err := report.Render(w, out.Graph, out.Result, out.ChunksBefore); err != nil {
				return err
			}
			if outPath != "" {
				if err := manifest.Save(outPath, out.Graph); err != nil {
					return fmt.Errorf("writing manifest: %w", err)
				}
				fmt.Fprintf(w, "Wrote manifest to %s\n", outPath)
			}
			if mermaidPath != "" {
				// Standalone .mmd files carry their own %%{init:}%% block.
				if err := os.WriteFile(mermaidPath, []byte(out.Mermaid(true)), 0o644); err != nil {
					return fmt.Errorf("writing diagram: %w", err)
				}
				fmt.Fprintf(w, "Wrote diagram to %s\n", mermaidPath)
			}
			return nil
		},
	}
	addPartitionFlags(cmd.Flags())
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the partitioned graph as a manifest (.json for JSON)")
	cmd.Flags().StringVar(&mermaidPath, "mermaid", "", "write a Mermaid diagram of the partitioned graph")
	return cmd
}

func newServeCmd(stderr io.Writer) *cobra.Command {
	d := config.Default()
	cmd := &cobra.Command{
		Use:   "serve <manifest-or-module>",
		Short: "Split chunks and show the before/after graphs in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, logCleanup, err := setup(cmd, stderr)
			if err != nil {
				return err
			}
			defer logCleanup()

			out, cleanup, err := pipeline.Run(cmd.Context(), args[0], cfg, logger)
			defer cleanup()
			if err != nil {
				logger.Error("split failed", "error", err)
				return err
			}

			data, err := manifest.Marshal(manifest.FromGraph(out.Graph), false)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Starting server on http://localhost:%d\n", cfg.Port)
			return server.Serve(cmd.Context(), out.Interactive(), data, cfg.Port, !cfg.NoBrowser, logger)
		},
	}
	addPartitionFlags(cmd.Flags())
	cmd.Flags().Int("port", d.Port, "HTTP server port")
	cmd.Flags().Bool("no-browser", d.NoBrowser, "skip auto-opening browser")
	return cmd
}

// setup loads the layered configuration and builds the logger for cmd.
func setup(cmd *cobra.Command, stderr io.Writer) (*config.Config, *slog.Logger, func(), error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, nil, func() {}, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, func() {}, err
	}
	logger, cleanup, err := logging.Setup(logging.Options{
		Level:  level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Writer: stderr,
	})
	if err != nil {
		return nil, nil, func() {}, fmt.Errorf("setting up logging: %w", err)
	}
	logger.Debug("configuration loaded",
		"config_file", configFile,
		"max_modules_per_chunk", cfg.MaxModulesPerChunk,
		"max_modules_per_entry", cfg.MaxModulesPerEntry,
		"only", cfg.Only)
	return cfg, logger, cleanup, nil
}
