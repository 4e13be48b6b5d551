// Package main hosts the tactile CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, wires the external
// service clients, and runs the conversion pipeline. It centralizes config
// loading, logger construction, and output locking so subcommands can focus
// on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
