package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/runtime"
)

type dataizeOpts struct {
	perf        bool
	hex         bool
	keepBaskets bool
	atoms       string
	maxDepth    int
}

var exampleForDataizeCmd = `  eocrun dataize fibonacci.eo
  eocrun dataize --perf --atoms bytecode fibonacci.eob
  eocrun dataize --keep-baskets --perf recursion.eo
`

func newDataizeCmd() *cobra.Command {
	var opt dataizeOpts
	dataizeCmd := &cobra.Command{
		Use:     "dataize <graph>",
		Short:   "dataize the root object of a graph and print the result",
		Example: exampleForDataizeCmd,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("keep-baskets") {
				cfg.Engine.KeepBaskets = opt.keepBaskets
			}
			if cmd.Flags().Changed("atoms") {
				cfg.Engine.Atoms = opt.atoms
			}
			if cmd.Flags().Changed("max-depth") {
				cfg.Engine.MaxDepth = opt.maxDepth
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runDataize(cmd.Context(), args[0], opt, cmd.OutOrStdout())
		},
	}
	dataizeCmd.Flags().BoolVar(&opt.perf, "perf", false, "print the transition and atom histogram")
	dataizeCmd.Flags().BoolVar(&opt.hex, "hex", false, "print the result as a hex literal")
	dataizeCmd.Flags().BoolVar(&opt.keepBaskets, "keep-baskets", false, "never delete baskets")
	dataizeCmd.Flags().StringVar(&opt.atoms, "atoms", "native", "atom flavor: native or bytecode")
	dataizeCmd.Flags().IntVar(&opt.maxDepth, "max-depth", 0, "bound on nested evaluation, 0 for none")
	return dataizeCmd
}

func runDataize(ctx context.Context, path string, opt dataizeOpts, out io.Writer) error {
	opts := cfg.EngineOptions(log.Underlying())
	e, err := runtime.Load(path, &opts)
	if err != nil {
		return err
	}

	start := time.Now()
	v, perf, err := e.Dataize()
	if err != nil {
		log.Error(ctx, "dataization failed", zap.String("graph", path), zap.Error(err))
		return err
	}
	log.Info(ctx, "dataized",
		zap.String("graph", path),
		zap.Int64("value", int64(v)),
		zap.Int("atoms", perf.TotalAtoms()),
		zap.Duration("elapsed", time.Since(start)))

	if opt.hex {
		fmt.Fprintln(out, core.FormatHex(v))
	} else {
		fmt.Fprintln(out, int64(v))
	}
	if opt.perf {
		renderPerf(out, perf, e.Stats())
	}
	return nil
}

func renderPerf(out io.Writer, perf runtime.Perf, stats runtime.Stats) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"KIND", "NAME", "COUNT"})
	for _, t := range runtime.Transitions() {
		table.Append([]string{"transition", t.String(), strconv.Itoa(perf.Count(t))})
	}
	for _, name := range perf.AtomNames() {
		table.Append([]string{"atom", name, strconv.Itoa(perf.Atoms[name])})
	}
	table.Append([]string{"baskets", "live", strconv.Itoa(stats.LiveBaskets)})
	table.Append([]string{"baskets", "peak", strconv.Itoa(stats.PeakBaskets)})
	table.Render()
}
