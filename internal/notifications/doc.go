// Package notifications publishes run lifecycle events to ntfy when a topic
// is configured. Notifications are strictly observational: delivery failures
// are logged by callers and never change a run's outcome.
package notifications
