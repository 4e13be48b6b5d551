package braille

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"tactile/internal/logging"
)

// Mode selects the transform strategy.
type Mode string

const (
	// ModeLiteral restricts output to braille cells, one per input character
	// on the deterministic fallback path.
	ModeLiteral Mode = "literal"
	// ModeOptimized produces free-form simplified text, not character-aligned
	// with the input.
	ModeOptimized Mode = "optimized"
)

// ParseMode validates a user-supplied mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeLiteral:
		return ModeLiteral, nil
	case ModeOptimized:
		return ModeOptimized, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected %q or %q)", value, ModeLiteral, ModeOptimized)
	}
}

// defaultCompletenessRatio is the minimum fraction of the input length a
// filtered literal-mode result must reach before it is trusted.
const defaultCompletenessRatio = 0.30

// Transformer is the primary (remote) text transform service.
type Transformer interface {
	Transform(ctx context.Context, text string, mode Mode) (string, error)
}

// Converter applies the primary transform and degrades to a deterministic
// local result whenever the primary is absent, fails, or produces suspect
// output. Convert never returns an error.
type Converter struct {
	primary Transformer
	logger  *slog.Logger
	ratio   float64
}

// Option customizes the converter.
type Option func(*Converter)

// WithCompletenessRatio overrides the literal-mode completeness threshold.
func WithCompletenessRatio(ratio float64) Option {
	return func(c *Converter) {
		if ratio > 0 && ratio <= 1 {
			c.ratio = ratio
		}
	}
}

// NewConverter builds a converter. primary may be nil, in which case every
// conversion takes the fallback path.
func NewConverter(primary Transformer, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{
		primary: primary,
		logger:  logging.NewComponentLogger(logger, "braille"),
		ratio:   defaultCompletenessRatio,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert transforms text according to mode. Failures of the primary service
// are absorbed: literal mode degrades to the deterministic cell table,
// optimized mode degrades to the untransformed input.
func (c *Converter) Convert(ctx context.Context, text string, mode Mode) string {
	switch mode {
	case ModeOptimized:
		return c.convertOptimized(ctx, text)
	default:
		return c.convertLiteral(ctx, text)
	}
}

func (c *Converter) convertLiteral(ctx context.Context, text string) string {
	if c.primary != nil {
		output, err := c.primary.Transform(ctx, text, ModeLiteral)
		if err == nil {
			filtered := FilterToCells(output)
			if c.IsAcceptable(filtered, text) {
				return filtered
			}
			c.logger.Warn("literal transform output rejected, using deterministic table",
				logging.Int("input_runes", len([]rune(text))),
				logging.Int("filtered_runes", len([]rune(filtered))))
		} else {
			c.logger.Warn("literal transform failed, using deterministic table", logging.Error(err))
		}
	}
	return Transliterate(text)
}

func (c *Converter) convertOptimized(ctx context.Context, text string) string {
	if c.primary == nil {
		return text
	}
	output, err := c.primary.Transform(ctx, text, ModeOptimized)
	if err != nil {
		// No deterministic paraphrase exists; the original text is the
		// degraded result.
		c.logger.Warn("optimized transform failed, returning original text", logging.Error(err))
		return text
	}
	normalized := normalizeOptimized(output)
	if normalized == "" {
		c.logger.Warn("optimized transform produced empty output, returning original text")
		return text
	}
	return normalized
}

// IsAcceptable applies the literal-mode completeness heuristic: the output
// must be non-empty and at least the configured fraction of the input length.
func (c *Converter) IsAcceptable(output, input string) bool {
	outRunes := len([]rune(output))
	if outRunes == 0 {
		return false
	}
	inRunes := len([]rune(input))
	if inRunes == 0 {
		return true
	}
	return float64(outRunes) >= c.ratio*float64(inRunes)
}

// FilterToCells strips every character outside the braille patterns block.
func FilterToCells(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if InCellRange(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Transliterate maps text to braille cells through the deterministic table:
// one cell per input rune, case-insensitive, unmapped runes become the blank
// cell. Output rune length always equals input rune length.
func Transliterate(text string) string {
	folded := foldDiacritics(text)
	runes := []rune(folded)
	// Diacritic folding can change rune count for exotic input; length
	// preservation is defined against the folded text in that case.
	cells := make([]rune, 0, len(runes))
	for _, r := range runes {
		lower := unicode.ToLower(r)
		if cell, ok := cellTable[lower]; ok {
			cells = append(cells, cell)
			continue
		}
		cells = append(cells, BlankCell)
	}
	return string(cells)
}
