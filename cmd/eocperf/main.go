// Command eocperf benchmarks the engine on the recursive fibonacci graph.
//
//	eocperf 7 1000
//
// opens, dataizes and deletes one basket per cycle, then prints the last
// result and the sum over all cycles.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sbl8/eoc/bench"
	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/internal/config"
	"github.com/sbl8/eoc/internal/logging"
	"github.com/sbl8/eoc/internal/metrics"
	"github.com/sbl8/eoc/runtime"
)

type perfOpts struct {
	cfgFile         string
	debugModeOn     bool
	parallel        int
	atoms           string
	progress        bool
	metricsTextfile string
}

var opt perfOpts

var rootCmd = &cobra.Command{
	Use:           "eocperf <input> <cycles>",
	Short:         "Benchmark dataization of the recursive fibonacci graph",
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := strconv.Atoi(args[0])
		if err != nil || input < 0 {
			return errors.Errorf("input must be a non-negative integer, got %q", args[0])
		}
		cycles, err := strconv.Atoi(args[1])
		if err != nil || cycles < 1 {
			return errors.Errorf("cycles must be a positive integer, got %q", args[1])
		}

		cfg, err := config.Load(opt.cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("parallel") {
			cfg.Bench.Parallel = opt.parallel
		}
		if cmd.Flags().Changed("atoms") {
			cfg.Engine.Atoms = opt.atoms
		}
		if cmd.Flags().Changed("progress") {
			cfg.Bench.Progress = opt.progress
		}
		if cmd.Flags().Changed("metrics-textfile") {
			cfg.Metrics.Textfile = opt.metricsTextfile
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cmd.Context(), cfg, input, cycles, cmd.OutOrStdout())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eocperf: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&opt.cfgFile, "config", "", "YAML config file (EOC_* environment variables override it)")
	rootCmd.Flags().BoolVarP(&opt.debugModeOn, "debug", "d", false, "turn on debug logging")
	rootCmd.Flags().IntVarP(&opt.parallel, "parallel", "p", 1, "number of independent engines running the cycles")
	rootCmd.Flags().StringVar(&opt.atoms, "atoms", "native", "atom flavor: native or bytecode")
	rootCmd.Flags().BoolVar(&opt.progress, "progress", false, "show a progress bar on stderr")
	rootCmd.Flags().StringVar(&opt.metricsTextfile, "metrics-textfile", "", "write prometheus metrics to this file when done")
}

func run(ctx context.Context, cfg *config.Config, input, cycles int, out io.Writer) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx = logging.WithRunID(ctx, uuid.New().String())
	if d := cfg.Bench.Timeout.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	table, err := bench.FibonacciGraph(input)
	if err != nil {
		return err
	}
	workers := cfg.Bench.Parallel
	collector := metrics.NewCollector()

	var bar *progressbar.ProgressBar
	if cfg.Bench.Progress {
		bar = newProgressBar(cycles*workers, fmt.Sprintf("fibonacci(%d)", input))
	}

	runner := &bench.Runner{
		Table:   table,
		Entry:   bench.FibonacciEntry,
		Cycles:  cycles,
		Options: cfg.EngineOptions(log.Underlying()),
		OnCycle: func(worker int, v core.Data, perf runtime.Perf, elapsed time.Duration, err error) {
			collector.Record(perf, elapsed, err)
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	}

	log.Info(ctx, "benchmark started",
		zap.Int("input", input),
		zap.Int("cycles", cycles),
		zap.Int("workers", workers),
		zap.String("atoms", cfg.Engine.Atoms))

	results, err := runner.RunParallel(ctx, workers)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		log.Error(ctx, "benchmark failed", zap.Error(err))
		return err
	}

	var last, total core.Data
	var elapsed time.Duration
	for _, res := range results {
		last = res.Value
		total += res.Total
		if res.Elapsed > elapsed {
			elapsed = res.Elapsed
		}
		collector.RecordStats(res.Stats)
	}
	log.Info(ctx, "benchmark finished",
		zap.Int64("result", int64(last)),
		zap.Int("atoms_per_cycle", results[0].Perf.TotalAtoms()/results[0].Cycles),
		zap.Duration("elapsed", elapsed))

	if path := cfg.Metrics.Textfile; path != "" {
		if err := collector.WriteTextfile(path); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%d-th Fibonacci number is %d\n", input, int64(last))
	fmt.Fprintf(out, "Total is %d\n", int64(total))
	return nil
}

func newProgressBar(total int, describe string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetDescription(describe),
	)
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc, err := cfg.LoggingConfig()
	if err != nil {
		return nil, err
	}
	if opt.debugModeOn {
		lc.Level = zapcore.DebugLevel
	}
	return logging.NewLogger(lc)
}
