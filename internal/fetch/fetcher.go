package fetch

import (
	"context"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tactile/internal/services"
)

// YtDlpCommand is the default downloader binary.
const YtDlpCommand = "yt-dlp"

// Fetcher downloads remote media to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, mediaURL string) (string, error)
}

// CommandRunner executes an external tool and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YtDlpFetcher downloads remote media with yt-dlp, preferring audio-only
// formats since only the audio track survives the pipeline anyway.
type YtDlpFetcher struct {
	binary  string
	workDir string
	runner  CommandRunner
}

// NewYtDlpFetcher builds a fetcher writing downloads under workDir.
func NewYtDlpFetcher(binary, workDir string) *YtDlpFetcher {
	if binary == "" {
		binary = YtDlpCommand
	}
	return &YtDlpFetcher{binary: binary, workDir: workDir}
}

// WithCommandRunner sets a custom command runner (for testing).
func (f *YtDlpFetcher) WithCommandRunner(runner CommandRunner) {
	f.runner = runner
}

// IsRemote reports whether input should be fetched rather than opened locally.
func IsRemote(input string) bool {
	parsed, err := url.Parse(input)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// Fetch downloads mediaURL and returns the local path of the produced file.
// The output name embeds a fresh UUID; the real extension is discovered by
// globbing afterwards since yt-dlp picks it per format.
func (f *YtDlpFetcher) Fetch(ctx context.Context, mediaURL string) (string, error) {
	if !IsRemote(mediaURL) {
		return "", services.Wrap(services.ErrInput, "fetch", "parse url", "expected http(s) url", nil)
	}

	base := filepath.Join(f.workDir, uuid.NewString())
	args := []string{
		"--format", "bestaudio[ext=webm]/bestaudio/best",
		"--output", base + ".%(ext)s",
		"--quiet",
		"--no-progress",
		mediaURL,
	}
	output, err := f.run(ctx, f.binary, args...)
	if err != nil {
		return "", services.Wrap(services.ErrInput, "fetch", "download", strings.TrimSpace(string(output)), err)
	}

	matches, err := filepath.Glob(base + ".*")
	if err != nil {
		return "", services.Wrap(services.ErrInput, "fetch", "locate download", "", err)
	}
	if len(matches) == 0 {
		return "", services.Wrap(services.ErrInput, "fetch", "locate download", "download produced no file", nil)
	}
	return matches[0], nil
}

func (f *YtDlpFetcher) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if f.runner != nil {
		return f.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
