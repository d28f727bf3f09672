package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sensorlog/internal/archive"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <config-file>",
		Short: "Summarize archived readings per room and signal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(args[0])
			if err != nil {
				return err
			}
			if cfg.ArchivePath == "" {
				return fmt.Errorf("no archive configured in %s (set metadata.archive_database_name)", cfg.SourcePath)
			}

			store, err := archive.Open(cmd.Context(), cfg.ArchivePath)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer store.Close()

			summaries, err := store.Summaries(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintf(out, "Archive %s is empty\n", store.Path())
				return nil
			}

			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				failed := strconv.Itoa(s.Failed)
				if s.Failed > 0 {
					failed = highlight(failed, colorize)
				}
				rows = append(rows, []string{
					s.Room,
					s.Signal,
					strconv.Itoa(s.Readings),
					failed,
					s.LastAt,
					s.LastValue,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Room", "Signal", "Readings", "Failed", "Last reading", "Last value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
}
