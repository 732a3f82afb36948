package main

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbl8/eoc/bench"
)

var exampleForCheckCmd = `  eocrun check testdata/suite.toml
  eocrun check --parallel 4 regression.toml
`

func newCheckCmd() *cobra.Command {
	var parallel int
	checkCmd := &cobra.Command{
		Use:     "check <suite.toml>",
		Short:   "run a regression suite and report every case",
		Example: exampleForCheckCmd,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("parallel") {
				cfg.Bench.Parallel = parallel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runCheck(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
	checkCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of cases checked at once")
	return checkCmd
}

func runCheck(ctx context.Context, path string, out io.Writer) error {
	suite, err := bench.LoadSuite(path)
	if err != nil {
		return err
	}
	if err := suite.Validate(); err != nil {
		return err
	}
	if d := cfg.Bench.Timeout.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	log.Info(ctx, "checking suite", zap.String("suite", path), zap.Int("cases", len(suite.Cases)))
	opts := cfg.EngineOptions(log.Underlying())
	outcomes, err := suite.Run(ctx, opts, cfg.Bench.Parallel, log.Underlying())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"CASE", "RESULT", "VALUE", "ATOMS", "ELAPSED", "DETAIL"})
	for _, o := range outcomes {
		result, detail := "ok", ""
		if !o.Passed() {
			result, detail = "FAIL", o.Err.Error()
		}
		table.Append([]string{
			o.Case,
			result,
			fmt.Sprint(int64(o.Value)),
			fmt.Sprint(o.Atoms),
			o.Elapsed.String(),
			detail,
		})
	}
	table.Render()

	if n := bench.Failed(outcomes); n > 0 {
		return errors.Errorf("%d of %d cases failed", n, len(outcomes))
	}
	fmt.Fprintf(out, "%d cases passed\n", len(outcomes))
	return nil
}
