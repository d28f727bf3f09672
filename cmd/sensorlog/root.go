package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sensorlog/internal/archive"
	"sensorlog/internal/logging"
	"sensorlog/internal/pipeline"
	"sensorlog/internal/sensors"
)

const usageLine = "usage: sensorlog [flags] <config-file>"

var errUsage = errors.New(usageLine)

func newRootCommand() *cobra.Command {
	var baseDirFlag, logLevelFlag, logFormatFlag string

	ctx := newCommandContext(&baseDirFlag, &logLevelFlag, &logFormatFlag)

	rootCmd := &cobra.Command{
		Use:           "sensorlog [flags] <config-file>",
		Short:         "Poll sensors, append to the full log, refresh the snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
				return errUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoll(cmd, ctx, args[0])
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "base-dir", "", "Directory relative paths resolve against (default $SENSORLOG_HOME or the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format override (console, json)")

	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newTailCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func runPoll(cmd *cobra.Command, ctx *commandContext, configPath string) error {
	cfg, err := ctx.loadConfig(configPath)
	if err != nil {
		return err
	}

	runCtx, logger, closeLogs, err := ctx.runLogger(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLogs() }()
	runID, _ := logging.RunIDFromContext(runCtx)

	fetcher := sensors.NewHTTPFetcher(sensors.ClientConfig{RequestTimeout: cfg.RequestTimeout()})
	poller := sensors.NewPoller(fetcher, logging.NewComponentLogger(logger, "sensors"))

	opts := pipeline.OptionsFromConfig(cfg)
	opts.RunID = runID

	var runOpts []pipeline.Option
	if cfg.ArchivePath != "" {
		store, err := archive.Open(runCtx, cfg.ArchivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer store.Close()
		runOpts = append(runOpts, pipeline.WithArchive(store))
	}

	logger.Info("run started",
		logging.FieldPath, cfg.SourcePath,
		"sensors", len(opts.Sensors),
	)
	result, err := pipeline.New(opts, poller, logger, runOpts...).Run(runCtx)
	if err != nil {
		return err
	}
	logger.Info("run complete",
		"records", len(result.Records),
		"failures", result.Failures,
		logging.FieldRows, result.SnapshotLines,
	)
	return nil
}
