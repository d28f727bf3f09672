package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sensorlog/internal/datalog"
)

func newTailCommand(ctx *commandContext) *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "tail <source> <dest> <n>",
		Short: "Overwrite dest with the last n lines of source",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[2])
			if err != nil || n < 0 {
				return fmt.Errorf("line count must be a non-negative integer, got %q", args[2])
			}
			src, err := ctx.resolvePath(args[0])
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			dst, err := ctx.resolvePath(args[1])
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}

			written, err := datalog.CopyLastLines(cmd.Context(), src, dst, n, datalog.TailOptions{ChunkSize: chunkSize})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d lines from %s to %s\n", written, src, dst)
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", datalog.DefaultChunkSize, "Bytes read per backward step")
	return cmd
}
