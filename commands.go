package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"schikko/lifecycle"
	"schikko/utils"
)

func hashOverrideCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-override [value]",
		Short: "Print a bcrypt hash for SCHIKKO_OVERRIDE_HASH",
		Long:  "Hashes the given value, or a line read from stdin, for use as SCHIKKO_OVERRIDE_HASH.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			if len(args) == 1 {
				value = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read value: %w", err)
				}
				value = strings.TrimRight(line, "\r\n")
			}
			if value == "" {
				return fmt.Errorf("empty value")
			}
			hash, err := utils.HashPassword(value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func runJobCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "run-job <job>",
		Short:     "Run one lifecycle job once and exit",
		ValidArgs: []string{lifecycle.JobAnnualReset, lifecycle.JobLogRetention, lifecycle.JobAutoUnset},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commonRun()
			cfg := loadConfig(logger)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			s, err := openStore(ctx, logger, cfg)
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			if err := newJobs(s, notifier(cfg), logger, nil, cfg).Run(ctx, args[0]); err != nil {
				logger.Error("job failed", "component", programName, "job", args[0], "err", err)
				return err
			}
			logger.Info("job finished", "component", programName, "job", args[0])
			return nil
		},
	}
}
