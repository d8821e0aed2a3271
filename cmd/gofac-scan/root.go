package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Ngone6325/gofac-autoscan/config"
	"github.com/Ngone6325/gofac-autoscan/discovery"
	"github.com/Ngone6325/gofac-autoscan/scan"
)

// Exit codes for scripting.
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUnresolved = 2
	ExitCodeCycle      = 3
)

type globalOptions struct {
	configPath string
	logLevel   string
	manifests  []string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "gofac-scan",
		Short: "Order convention-discovered services before registration",
		Long: `gofac-scan reads service manifests, classifies their units, resolves
every requirement to a provider and prints a safe activation order.

It fails with exit code 2 when a requirement has no provider and with
exit code 3 when the services depend on each other in a cycle.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "gofac-scan version %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "scan configuration file (YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringSliceVarP(&opts.manifests, "manifest", "m", nil, "manifest file, may be repeated")

	root.AddCommand(newPlanCmd(opts), newCheckCmd(opts))
	return root
}

// exitCode maps a failure to the documented exit codes.
func exitCode(err error) int {
	switch scan.KindOf(err) {
	case scan.FailureNone:
		return ExitCodeSuccess
	case scan.FailureUnresolved:
		return ExitCodeUnresolved
	case scan.FailureCycle:
		return ExitCodeCycle
	default:
		return ExitCodeError
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// session holds what every subcommand needs for one pass.
type session struct {
	scanner  *scan.Scanner
	registry *scan.MemoryRegistry
	sources  []scan.Source
}

func (o *globalOptions) session(cmd *cobra.Command) (*session, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), o.logLevel)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if o.configPath != "" {
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	scanOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	known, err := cfg.Known()
	if err != nil {
		return nil, err
	}

	sources := make([]scan.Source, 0, len(o.manifests))
	for _, path := range o.manifests {
		m, err := discovery.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, m)
	}

	scanOpts = append(scanOpts,
		scan.WithLogger(logger),
		scan.WithDiscoverer(discovery.NewDiscoverer(discovery.WithLogger(logger))),
	)
	return &session{
		scanner:  scan.New(scanOpts...),
		registry: scan.NewMemoryRegistry(known...),
		sources:  sources,
	}, nil
}
