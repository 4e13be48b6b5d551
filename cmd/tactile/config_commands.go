package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tactile/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"config path", ctx.configPath},
				{"paths.work_dir", cfg.Paths.WorkDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"paths.output_dir", cfg.Paths.OutputDir},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
				{"object_store.endpoint", cfg.ObjectStore.Endpoint},
				{"object_store.access_key", redact(cfg.ObjectStore.AccessKey)},
				{"object_store.secret_key", redact(cfg.ObjectStore.SecretKey)},
				{"object_store.region", cfg.ObjectStore.Region},
				{"object_store.bucket", cfg.ObjectStore.Bucket},
				{"object_store.use_ssl", strconv.FormatBool(cfg.ObjectStore.UseSSL)},
				{"object_store.key_prefix", cfg.ObjectStore.KeyPrefix},
				{"transcriber.base_url", cfg.Transcriber.BaseURL},
				{"transcriber.api_key", redact(cfg.Transcriber.APIKey)},
				{"transcriber.language_code", cfg.Transcriber.LanguageCode},
				{"transcriber.media_format", cfg.Transcriber.MediaFormat},
				{"transcriber.poll_interval_seconds", strconv.Itoa(cfg.Transcriber.PollIntervalSeconds)},
				{"transcriber.transient_backoff_seconds", strconv.Itoa(cfg.Transcriber.TransientBackoffSeconds)},
				{"transcriber.timeout_minutes", strconv.Itoa(cfg.Transcriber.TimeoutMinutes)},
				{"transform.api_key", redact(cfg.Transform.APIKey)},
				{"transform.base_url", cfg.Transform.BaseURL},
				{"transform.model", cfg.Transform.Model},
				{"retry.max_attempts", strconv.Itoa(cfg.Retry.MaxAttempts)},
				{"retry.base_delay_ms", strconv.Itoa(cfg.Retry.BaseDelayMS)},
				{"retry.multiplier", strconv.FormatFloat(cfg.Retry.Multiplier, 'f', -1, 64)},
				{"notifications.ntfy_topic", cfg.Notifications.NtfyTopic},
				{"tools.ffmpeg", cfg.Tools.FFmpeg},
				{"tools.ffprobe", cfg.Tools.FFprobe},
				{"tools.ytdlp", cfg.Tools.YtDlp},
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows))
			return nil
		},
	}
}

func redact(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unset)"
	}
	return "****"
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set the object store and API credentials before running tactile.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}
