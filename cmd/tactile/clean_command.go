package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tactile/internal/workdir"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var list bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale run directories left by crashed runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				dirs, err := workdir.ListDirectories(cfg.Paths.WorkDir)
				if err != nil {
					return fmt.Errorf("list work directories: %w", err)
				}
				if len(dirs) == 0 {
					fmt.Fprintln(out, "Work directory is empty")
					return nil
				}
				rows := make([][]string, 0, len(dirs))
				for _, dir := range dirs {
					rows = append(rows, []string{
						dir.Name,
						dir.ModTime.Format(time.RFC3339),
						fmt.Sprintf("%d B", dir.Size),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Run", "Modified", "Size"}, rows, 2))
				return nil
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			result := workdir.CleanStale(cfg.Paths.WorkDir, maxAge, logger)
			fmt.Fprintf(out, "Removed %d stale run directories\n", len(result.Removed))
			for _, cleanupErr := range result.Errors {
				fmt.Fprintf(out, "failed to clean %s: %v\n", cleanupErr.Path, cleanupErr.Error)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove run directories older than this")
	cmd.Flags().BoolVar(&list, "list", false, "List run directories instead of removing them")
	return cmd
}
