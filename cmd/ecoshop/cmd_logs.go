package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/ecoshop/internal/logging"
	"github.com/five82/ecoshop/internal/logtail"
)

var (
	logLines    int
	logMinLevel string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the ecoshop log file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logMinLevel)
		if err != nil {
			return err
		}
		lines, err := logtail.Read(cfg.LogPath, logLines)
		if err != nil {
			return err
		}
		pretty := logtail.Pretty(lines, level)
		if len(pretty) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No log entries.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(pretty, "\n"))
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 100, "Number of lines to read from the end (0 for all)")
	logsCmd.Flags().StringVar(&logMinLevel, "level", "debug", "Minimum level: debug, info, warn or error")
}
