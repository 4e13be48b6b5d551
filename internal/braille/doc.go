// Package braille converts transcript text into tactile output.
//
// The Converter prefers the remote transform service and degrades without
// error: literal mode falls back to a deterministic character-to-cell table
// (one cell per input rune), optimized mode falls back to the untransformed
// transcript. Validation of the primary's literal output is a completeness
// heuristic exposed via IsAcceptable so it can be tested in isolation.
package braille
