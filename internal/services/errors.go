package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInput         = errors.New("input error")
	ErrExtraction    = errors.New("extraction error")
	ErrAuth          = errors.New("authorization error")
	ErrNotFound      = errors.New("not found")
	ErrTranscription = errors.New("transcription error")
	ErrOutput        = errors.New("output error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// fatalMarkers are the markers that abort a run immediately. ErrTransient is
// deliberately absent; anything untagged is treated as transient by callers
// that retry.
var fatalMarkers = []error{
	ErrInput,
	ErrExtraction,
	ErrAuth,
	ErrNotFound,
	ErrTranscription,
	ErrOutput,
	ErrConfiguration,
	ErrTimeout,
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether err is tagged as recoverable and worth retrying.
func IsTransient(err error) bool {
	return err != nil && errors.Is(err, ErrTransient)
}

// IsFatal reports whether err carries a marker that must abort the run without
// further attempts.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	for _, marker := range fatalMarkers {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
