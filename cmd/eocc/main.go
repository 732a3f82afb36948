// Command eocc compiles object graphs from the textual notation into the
// binary form loaded by eocrun.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/sbl8/eoc/compiler"
	"github.com/sbl8/eoc/internal/config"
	"github.com/sbl8/eoc/internal/logging"
	"github.com/sbl8/eoc/model"
)

type compileOpts struct {
	cfgFile    string
	prune      bool
	root       int
	noValidate bool
	verbose    bool
	dump       bool
}

var opt compileOpts

var exampleForRootCmd = `  eocc fibonacci.eo fibonacci.eob
  eocc --prune --root 2 graph.eo graph.eob
  eocc --dump fibonacci.eob
`

var rootCmd = &cobra.Command{
	Use:           "eocc <src> <out>",
	Short:         "Compile textual object graphs",
	Example:       exampleForRootCmd,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if opt.dump {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if opt.dump {
			return dump(cmd, args[0])
		}
		return compile(cmd, args[0], args[1])
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eocc: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&opt.cfgFile, "config", "", "YAML config file (log section only)")
	rootCmd.Flags().BoolVar(&opt.prune, "prune", false, "drop objects unreachable from --root")
	rootCmd.Flags().IntVar(&opt.root, "root", int(model.RootObject), "entry object kept by --prune")
	rootCmd.Flags().BoolVar(&opt.noValidate, "no-validate", false, "skip reference validation")
	rootCmd.Flags().BoolVarP(&opt.verbose, "verbose", "v", false, "report every compilation stage")
	rootCmd.Flags().BoolVar(&opt.dump, "dump", false, "print a compiled file in the textual notation")
}

func compile(cmd *cobra.Command, src, out string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	opts := compiler.DefaultOptions()
	opts.Prune = opt.prune
	opts.Root = model.ObjectID(opt.root)
	opts.Validate = !opt.noValidate
	opts.Verbose = opt.verbose
	opts.Logger = log.Underlying()

	if err := compiler.CompileWithOptions(src, out, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully compiled %s -> %s\n", src, out)
	return nil
}

func dump(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := compiler.Decompile(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

func newLogger() (*logging.Logger, error) {
	cfg, err := config.Load(opt.cfgFile)
	if err != nil {
		return nil, err
	}
	lc, err := cfg.LoggingConfig()
	if err != nil {
		return nil, err
	}
	if opt.verbose && lc.Level > zapcore.InfoLevel {
		lc.Level = zapcore.InfoLevel
	}
	return logging.NewLogger(lc)
}
