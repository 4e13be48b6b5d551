package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"tactile/internal/braille"
	"tactile/internal/config"
	"tactile/internal/fetch"
	"tactile/internal/textutil"
)

func newConvertCommand(cmdCtx *commandContext) *cobra.Command {
	var outputFlag string
	var modeFlag string
	var timeoutFlag time.Duration

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a media file or URL into tactile text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			mode, err := braille.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			input := args[0]
			outputPath, err := resolveOutputPath(cfg, input, outputFlag)
			if err != nil {
				return err
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeoutFlag > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeoutFlag)
				defer cancel()
			}

			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			// One writer per output path at a time.
			lock := flock.New(outputPath + ".lock")
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire output lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another conversion is already writing to %s", outputPath)
			}
			defer func() {
				_ = lock.Unlock()
				_ = os.Remove(lock.Path())
			}()

			orch, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			result, err := orch.Run(ctx, input, outputPath, mode)
			if err != nil {
				return err
			}

			renderSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination for the converted text (default: output dir + input name)")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(braille.ModeLiteral), "Conversion mode: literal or optimized")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Abort the run after this duration (e.g. 45m)")
	return cmd
}

func resolveOutputPath(cfg *config.Config, input, flag string) (string, error) {
	if strings.TrimSpace(flag) != "" {
		return config.ExpandPath(flag)
	}
	return filepath.Join(cfg.Paths.OutputDir, outputBaseName(input)+".txt"), nil
}

func outputBaseName(input string) string {
	if fetch.IsRemote(input) {
		if parsed, err := url.Parse(input); err == nil {
			base := path.Base(parsed.Path)
			base = textutil.SanitizeFileName(strings.TrimSuffix(base, path.Ext(base)))
			if base != "" && base != "." && base != "/" {
				return base
			}
		}
		return "transcript"
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
