package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sensorlog/internal/config"
	"sensorlog/internal/datalog"
	"sensorlog/internal/sensors"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var full bool
	var rows int

	cmd := &cobra.Command{
		Use:   "show <config-file>",
		Short: "Render the snapshot as one table per room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(args[0])
			if err != nil {
				return err
			}
			if rows < 0 {
				return fmt.Errorf("--rows must not be negative, got %d", rows)
			}
			n := rows
			if n == 0 {
				n = cfg.Metadata.NumRowsToCopy
			}
			source := cfg.SnapshotPath
			if full {
				source = cfg.FullLogPath
			}

			lines, err := datalog.ReadLastLines(cmd.Context(), source, n, datalog.TailOptions{ChunkSize: cfg.Metadata.ChunkSize})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			groups := groupByRoom(lines)
			if len(groups) == 0 {
				fmt.Fprintf(out, "No rows in %s\n", source)
				return nil
			}

			colorize := shouldColorize(out)
			for i, group := range groups {
				if i > 0 {
					fmt.Fprintln(out)
				}
				for _, line := range renderSectionHeader(group.room, colorize) {
					fmt.Fprintln(out, line)
				}
				headers, aligns := roomHeaders(cfg, group)
				fmt.Fprintln(out, renderTable(headers, markSentinels(group.rows, colorize), aligns))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Read the full log instead of the snapshot")
	cmd.Flags().IntVar(&rows, "rows", 0, "Number of rows to read (default num_rows_to_copy)")
	return cmd
}

type roomRows struct {
	room  string
	rows  [][]string
	width int
}

// groupByRoom splits log lines by their room column, keeping rooms in order
// of first appearance. Lines with fewer than two columns are skipped.
func groupByRoom(lines []string) []roomRows {
	index := map[string]int{}
	var groups []roomRows
	for _, line := range lines {
		values := datalog.ParseLine(line)
		if len(values) < 2 {
			continue
		}
		room := values[1]
		i, ok := index[room]
		if !ok {
			i = len(groups)
			index[room] = i
			groups = append(groups, roomRows{room: room})
		}
		groups[i].rows = append(groups[i].rows, values)
		groups[i].width = max(groups[i].width, len(values))
	}
	return groups
}

// roomHeaders names the columns from the room's configured signals. Rooms no
// longer configured, or rows wider than the configuration, get numbered
// columns.
func roomHeaders(cfg *config.Config, group roomRows) ([]string, []columnAlignment) {
	headers := []string{sensors.KeyDatetime, sensors.KeyRoom}
	aligns := []columnAlignment{alignLeft, alignLeft}

	signals, _ := cfg.SignalsFor(group.room)
	for i := 0; i < max(len(signals), group.width-2); i++ {
		name := "col" + strconv.Itoa(i+3)
		if i < len(signals) {
			name = signals[i]
		}
		headers = append(headers, name)
		aligns = append(aligns, alignRight)
	}
	return headers, aligns
}

func markSentinels(rows [][]string, colorize bool) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			if cell == sensors.Sentinel {
				cell = highlight(cell, colorize)
			}
			out[i][j] = cell
		}
	}
	return out
}
