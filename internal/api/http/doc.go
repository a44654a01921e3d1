// Package http exposes the ingest API of the escalation daemon: button
// presses, window cancellation, sensor telemetry, direct notifications and
// authority announcements, plus a read endpoint for recent alert records.
package http
