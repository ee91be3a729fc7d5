package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/patientseek/pkg/cli"
	"mercator-hq/patientseek/pkg/config"
	"mercator-hq/patientseek/pkg/deepseek"
	"mercator-hq/patientseek/pkg/providers"
	"mercator-hq/patientseek/pkg/telemetry"
	"mercator-hq/patientseek/pkg/telemetry/metrics"
)

// app holds state shared by every subcommand once the root command has run
// its pre-run hook.
type app struct {
	// Global flags
	cfgFile string
	envFile string
	verbose bool

	cfg    *config.Config
	tel    *telemetry.Telemetry
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "patientseek",
		Short: "PatientSeek - medical LLM client for OpenAI-compatible endpoints",
		Long: `PatientSeek talks to the PatientSeek model, or any model served behind an
OpenAI-compatible chat-completions endpoint, and prints its answers.

Configuration is read from an optional YAML file (--config) and from
PATIENT_SEEK_* environment variables, which may be loaded from a .env file.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load environment variables from this file (default: ./.env if present)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newChatCmd(a),
		newModelsCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads the environment, configuration and logger.
func (a *app) load(cmd *cobra.Command) error {
	var err error
	if a.envFile != "" {
		err = config.LoadDotEnv(a.envFile)
	} else {
		err = config.LoadDotEnv()
	}
	if err != nil {
		return cli.NewConfigError("--env-file", err)
	}

	cfg, err := config.LoadConfigWithEnvOverrides(a.cfgFile)
	if err != nil {
		return cli.NewConfigError(a.cfgFile, err)
	}
	if a.verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	tel, err := telemetry.New(cfg.Telemetry, cmd.ErrOrStderr())
	if err != nil {
		return cli.NewConfigError("telemetry", err)
	}
	slog.SetDefault(tel.Logger())

	a.cfg = cfg
	a.tel = tel
	a.logger = tel.Logger()
	return nil
}

// newPlugin builds a plugin from the loaded configuration.
func (a *app) newPlugin(collector *metrics.Collector) (*deepseek.Plugin, error) {
	opts := deepseek.Options{
		APIKey:  a.cfg.Provider.APIKey,
		BaseURL: a.cfg.Provider.BaseURL,
		Transport: providers.TransportConfig{
			Name:                deepseek.PluginName,
			Timeout:             a.cfg.Provider.Timeout,
			MaxRetries:          a.cfg.Provider.MaxRetries,
			MaxIdleConns:        a.cfg.Provider.MaxIdleConns,
			MaxIdleConnsPerHost: a.cfg.Provider.MaxIdleConnsPerHost,
			IdleConnTimeout:     a.cfg.Provider.IdleConnTimeout,
		},
		Logger:  a.logger,
		Metrics: collector,
	}

	for _, m := range a.cfg.Models {
		opts.Models = append(opts.Models, m.Definition())
		if m.StructuredOutput {
			opts.StructuredOutput = append(opts.StructuredOutput, m.WireModel())
		}
	}

	return deepseek.New(opts)
}

// collector returns the process metrics collector.
func (a *app) collector() *metrics.Collector {
	if a.tel == nil {
		return nil
	}
	return a.tel.Metrics()
}
