package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"tactile/internal/services"
)

// FFmpegCommand is the default extraction binary.
const FFmpegCommand = "ffmpeg"

// FFprobeCommand is the default probe binary.
const FFprobeCommand = "ffprobe"

// Extractor normalizes a media file's audio track for transcription.
type Extractor interface {
	Extract(ctx context.Context, inputPath, dest string) error
}

// CommandRunner executes an external tool and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpegExtractor extracts audio with ffmpeg, producing a mono 16 kHz 16-bit
// PCM WAV suitable for transcription services.
type FFmpegExtractor struct {
	ffmpegBinary  string
	ffprobeBinary string
	runner        CommandRunner
}

// NewFFmpegExtractor builds an extractor. Empty binary names fall back to the
// commands on PATH.
func NewFFmpegExtractor(ffmpegBinary, ffprobeBinary string) *FFmpegExtractor {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if ffprobeBinary == "" {
		ffprobeBinary = FFprobeCommand
	}
	return &FFmpegExtractor{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *FFmpegExtractor) WithCommandRunner(runner CommandRunner) {
	e.runner = runner
}

// Extract probes inputPath for an audio stream and writes the normalized WAV
// to dest. A missing or unreadable input is an input error; a source without
// any audio track is an extraction error.
func (e *FFmpegExtractor) Extract(ctx context.Context, inputPath, dest string) error {
	if _, err := os.Stat(inputPath); err != nil {
		return services.Wrap(services.ErrInput, "extract", "stat input", "", err)
	}

	ok, err := e.hasAudioTrack(ctx, inputPath)
	if err != nil {
		return services.Wrap(services.ErrExtraction, "extract", "probe input", "", err)
	}
	if !ok {
		return services.Wrap(services.ErrExtraction, "extract", "probe input", "no audio track", nil)
	}

	args := buildExtractArgs(inputPath, dest)
	output, err := e.run(ctx, e.ffmpegBinary, args...)
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if looksLikeMissingAudio(detail) {
			return services.Wrap(services.ErrExtraction, "extract", "ffmpeg", "no audio track", err)
		}
		return services.Wrap(services.ErrExtraction, "extract", "ffmpeg", detail, err)
	}
	return nil
}

func (e *FFmpegExtractor) hasAudioTrack(ctx context.Context, inputPath string) (bool, error) {
	output, err := e.run(ctx, e.ffprobeBinary,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		inputPath,
	)
	if err != nil {
		return false, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)) != "", nil
}

func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func looksLikeMissingAudio(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "does not contain any stream") ||
		strings.Contains(lower, "stream map 'a' matches no streams") ||
		strings.Contains(lower, "output file does not contain any stream")
}

func (e *FFmpegExtractor) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.runner != nil {
		return e.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
