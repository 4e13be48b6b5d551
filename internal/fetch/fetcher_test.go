package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tactile/internal/services"
)

func TestIsRemote(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/watch?v=abc": true,
		"http://example.com/clip":         true,
		"/tmp/clip.mp4":                   false,
		"clip.mp4":                        false,
		"s3://bucket/key":                 false,
	}
	for input, want := range cases {
		if got := IsRemote(input); got != want {
			t.Fatalf("IsRemote(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestFetchRejectsLocalPath(t *testing.T) {
	fetcher := NewYtDlpFetcher("", t.TempDir())
	_, err := fetcher.Fetch(context.Background(), "/tmp/clip.mp4")
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestFetchReturnsDownloadedFile(t *testing.T) {
	workDir := t.TempDir()
	fetcher := NewYtDlpFetcher("yt-dlp", workDir)
	var gotArgs []string
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		// Simulate yt-dlp writing the file named by the output template.
		for i, arg := range args {
			if arg == "--output" {
				produced := strings.Replace(args[i+1], ".%(ext)s", ".webm", 1)
				if err := os.WriteFile(produced, []byte("audio"), 0o644); err != nil {
					t.Fatalf("write download: %v", err)
				}
			}
		}
		return nil, nil
	})

	path, err := fetcher.Fetch(context.Background(), "https://example.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if filepath.Ext(path) != ".webm" {
		t.Fatalf("unexpected download path %q", path)
	}
	if filepath.Dir(path) != workDir {
		t.Fatalf("expected download under %q, got %q", workDir, path)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "bestaudio") {
		t.Fatalf("expected audio format preference in args %q", joined)
	}
}

func TestFetchNoFileProduced(t *testing.T) {
	fetcher := NewYtDlpFetcher("yt-dlp", t.TempDir())
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil
	})

	_, err := fetcher.Fetch(context.Background(), "https://example.com/watch?v=abc")
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestFetchToolFailure(t *testing.T) {
	fetcher := NewYtDlpFetcher("yt-dlp", t.TempDir())
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("ERROR: video unavailable"), errors.New("exit status 1")
	})

	_, err := fetcher.Fetch(context.Background(), "https://example.com/watch?v=abc")
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if !strings.Contains(err.Error(), "video unavailable") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}
