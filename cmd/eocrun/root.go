package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/sbl8/eoc/internal/config"
	"github.com/sbl8/eoc/internal/logging"
)

type rootOpts struct {
	cfgFile     string
	debugModeOn bool
}

var (
	rootOpt rootOpts

	cfg *config.Config
	log = logging.Nop()
)

var longRootCmdDescription = `eocrun reduces an object graph to a single scalar.

Graphs are read either in the textual notation or in the compiled form
produced by eocc; the format is detected from the file header.
`

var rootCmd = &cobra.Command{
	Use:           "eocrun",
	Short:         "Dataize object graphs",
	Long:          longRootCmdDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eocrun: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newDataizeCmd(), newCheckCmd(), newAtomsCmd())

	rootCmd.PersistentFlags().StringVar(&rootOpt.cfgFile, "config", "", "YAML config file (EOC_* environment variables override it)")
	rootCmd.PersistentFlags().BoolVarP(&rootOpt.debugModeOn, "debug", "d", false, "turn on debug logging")
}

func initConfig() error {
	c, err := config.Load(rootOpt.cfgFile)
	if err != nil {
		return err
	}
	lc, err := c.LoggingConfig()
	if err != nil {
		return err
	}
	if rootOpt.debugModeOn {
		lc.Level = zapcore.DebugLevel
	}
	l, err := logging.NewLogger(lc)
	if err != nil {
		return err
	}
	cfg, log = c, l
	return nil
}
