// Package router is the notification fan-out engine: it classifies an alert
// onto a delivery channel, resolves its audiences (role topic expressions or
// per-recipient token fallback), builds the provider payload and issues the
// push and in-app writes concurrently. Dedup between the alert path and the
// notification-record path is carried by the suppress flag on derived in-app
// records plus an optional per-record dispatch marker.
package router
