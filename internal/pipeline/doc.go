// Package pipeline sequences one audio-to-tactile-text conversion run.
//
// A run drives extract, upload, transcribe, transform, and write stages in
// strict order. Remote calls go through the retry executor, the transcription
// job through the async poller, and the transform stage through the braille
// converter's fallback path. Every artifact a stage creates is registered
// with a per-run ledger that is released on every exit path, so concurrent
// runs never leak temp files, uploaded objects, or remote jobs.
package pipeline
