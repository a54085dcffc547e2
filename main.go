package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"schikko/config"
)

const programName = "schikko"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func commonRun() *slog.Logger {
	logLevel := slog.LevelInfo
	addSource := false
	if globalFlags.debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	)
	slog.SetDefault(logger)
	return logger
}

func loadConfig(logger *slog.Logger) *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Error("failed to load config", "component", programName, "err", err)
		os.Exit(1)
	}
	return cfg
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Penalty ledger backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commonRun()
			return serveRun(cmd.Context(), logger, loadConfig(logger))
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")

	rootCmd.AddCommand(
		serveCommand(),
		hashOverrideCommand(),
		runJobCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
