package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	content := fmt.Sprintf(`
[paths]
work_dir = %q
log_dir = %q
output_dir = %q

[object_store]
endpoint = "store.test:9000"
access_key = "test-access"
secret_key = "test-secret"
bucket = "tactile-test"

[transcriber]
base_url = "https://transcribe.test"

[transform]
api_key = "test-key"
`,
		filepath.Join(base, "work"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "output"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "tactile") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	configPath := writeTestConfig(t, base)
	out, _, err = runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "store.test:9000") {
		t.Fatalf("expected endpoint in output: %q", out)
	}
	if strings.Contains(out, "test-secret") {
		t.Fatalf("secret must be redacted: %q", out)
	}
}

func TestConvertRejectsMissingInput(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	_, _, err := runCLI(t, configPath, "convert", filepath.Join(base, "absent.mp4"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !strings.Contains(err.Error(), "not readable") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConvertRejectsUnknownMode(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	_, _, err := runCLI(t, configPath, "convert", "--mode", "verbose", filepath.Join(base, "talk.mp4"))
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestOutputBaseName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"/data/talk.mp4", "talk"},
		{"lecture.wav", "lecture"},
		{"https://example.com/media/episode-1.webm", "episode-1"},
		{"https://example.com/", "transcript"},
	}
	for _, tc := range cases {
		if got := outputBaseName(tc.input); got != tc.want {
			t.Errorf("outputBaseName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
