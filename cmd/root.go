// Package cmd implements the huffarc command line.
package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"huffarc/pkg/config"
	"huffarc/pkg/core"
	"huffarc/pkg/logger"
)

// app holds what the persistent flags resolve to for one invocation.
type app struct {
	configFile string
	logLevel   string
	logFormat  string
	quiet      bool

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "huffarc",
		Short: "Huffman archiver for files and directory trees",
		Long: `huffarc packs files and directory trees into a single archive,
coding every file with its own Huffman tree over 8 or 16 bit words.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	fs := root.PersistentFlags()
	fs.StringVar(&a.configFile, "config", "", "YAML config file (default $"+config.EnvConfig+")")
	fs.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&a.logFormat, "log-format", "", "log format: console or json")
	fs.BoolVarP(&a.quiet, "quiet", "q", false, "no progress or summary output")

	root.AddCommand(
		newCompressCmd(a),
		newDecompressCmd(a),
		newListCmd(a),
		newVerifyCmd(a),
	)
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadWithFallback(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.InitWithConfig(cfg.Log, ""); err != nil {
		return err
	}
	a.cfg = cfg
	log.Debug().Str("command", cmd.Name()).Msg("configuration loaded")
	return nil
}

// options returns the pipeline options for one subcommand.
func (a *app) options(module string) (core.Options, error) {
	opts, err := a.cfg.Options()
	if err != nil {
		return opts, err
	}
	opts.Logger = logger.New(module)
	opts.Progress = a.cfg.Progress && !a.quiet && logger.IsTerminal(os.Stderr)
	return opts, nil
}
