// Package logging centralizes slog construction and the structured field
// conventions used across the pipeline: component names, run identifiers,
// stage names, and correlation IDs carried through context.
package logging
