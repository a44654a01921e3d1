// Package notify implements the escalation-notify CLI: a thin client that
// posts direct notifications and announcements to a running daemon.
package notify
