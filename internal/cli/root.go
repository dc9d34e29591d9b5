package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/toplite/internal/config"
	"github.com/Dicklesworthstone/toplite/internal/procfs"
	"github.com/Dicklesworthstone/toplite/internal/sampler"
	"github.com/Dicklesworthstone/toplite/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

var (
	configPath string
	flags      = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "toplite [interval_ms]",
	Short: "Minimal live process and system resource monitor",
	Long: `toplite samples /proc every tick and shows CPU, memory, load, uptime,
task states and a process table sorted by the selected column.

Keys: < or , previous sort column, > or . next sort column,
R reverse sort direction, q quit.`,
	Example: `  # Refresh every 2 seconds (default)
  toplite

  # Refresh every 500 ms, sorted by memory
  toplite 500 --sort mem

  # Print three frames to stdout and exit
  toplite --batch -n 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file")
	f.StringVar(&flags.Sort, "sort", flags.Sort, "initial sort column: pid|cpu|mem|time|command")
	f.BoolVar(&flags.Ascending, "ascending", flags.Ascending, "sort ascending instead of descending")
	f.StringVar(&flags.ProcRoot, "proc-root", flags.ProcRoot, "procfs mount point")
	f.IntVar(&flags.MaxProcesses, "max-procs", flags.MaxProcesses, "stop collecting after this many processes (0 = no limit)")
	f.BoolVarP(&flags.Batch, "batch", "b", flags.Batch, "write plain frames to stdout instead of the interactive view")
	f.IntVarP(&flags.Iterations, "iterations", "n", flags.Iterations, "number of batch frames (0 = until interrupted)")
	f.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level: debug|info|warn|error")
	f.StringVar(&flags.LogFile, "log-file", flags.LogFile, "append logs to this file")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	fs := procfs.New(cfg.ProcRoot)
	fs.MaxProcesses = cfg.MaxProcesses
	fs.Log = log

	s, err := sampler.New(fs, cfg.Interval(), log)
	if err != nil {
		return errors.Wrap(err, "reading initial CPU times")
	}
	log.WithFields(logrus.Fields{
		"interval": cfg.Interval(),
		"sort":     cfg.Sort,
		"root":     cfg.ProcRoot,
	}).Info("toplite started")

	key := cfg.SortKey()
	if cfg.Batch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return ui.RunBatch(ctx, cmd.OutOrStdout(), s, key, cfg.Iterations, terminalSize)
	}
	return ui.RunTUI(s, cfg.Interval(), key)
}

// resolveConfig layers explicitly set flags and the positional interval
// over the file and environment configuration.
func resolveConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("sort") {
		cfg.Sort = flags.Sort
	}
	if f.Changed("ascending") {
		cfg.Ascending = flags.Ascending
	}
	if f.Changed("proc-root") {
		cfg.ProcRoot = flags.ProcRoot
	}
	if f.Changed("max-procs") {
		cfg.MaxProcesses = flags.MaxProcesses
	}
	if f.Changed("batch") {
		cfg.Batch = flags.Batch
	}
	if f.Changed("iterations") {
		cfg.Iterations = flags.Iterations
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = flags.LogFile
	}
	if len(args) == 1 {
		ms, err := config.ParseIntervalMS(args[0])
		if err != nil {
			return cfg, err
		}
		cfg.IntervalMS = ms
	}
	return cfg, cfg.Validate()
}

// newLogger sends logs to the log file when set. Otherwise batch mode logs
// to stderr and the interactive view, which owns the terminal, discards them.
func newLogger(cfg config.Config) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Wrap(err, "log level")
	}
	log.SetLevel(level)

	closer := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open log file")
		}
		log.SetOutput(f)
		closer = func() { _ = f.Close() }
	case cfg.Batch:
		log.SetOutput(os.Stderr)
	default:
		log.SetOutput(io.Discard)
	}
	return log, closer, nil
}

func terminalSize() (int, int) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallbackWidth, fallbackHeight
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return w, h
}
