package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"tactile/internal/pipeline"
)

func renderSummary(w io.Writer, result *pipeline.Result) {
	if isTTY(w) {
		rows := make([][]string, 0, len(result.Stages))
		for _, stage := range result.Stages {
			rows = append(rows, []string{stage.Name, formatDuration(stage.Duration)})
		}
		fmt.Fprintln(w, renderTable([]string{"Stage", "Duration"}, rows, 1))
	} else {
		for _, stage := range result.Stages {
			fmt.Fprintf(w, "stage %s: %s\n", stage.Name, formatDuration(stage.Duration))
		}
	}

	fmt.Fprintf(w, "Run %s finished in %s (%s mode, %d transcript characters)\n",
		result.RunID, formatDuration(result.Duration), result.Mode, result.TranscriptChars)
	fmt.Fprintf(w, "Output written to %s\n", result.OutputPath)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(100 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Millisecond).String()
	default:
		return d.String()
	}
}

func isTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
