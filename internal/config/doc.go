// Package config defines settings used by the escalation binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds store/broker/provider addresses plus the detector and
// confirmation-window tunables; Validate fills defaults for unset tunables.
package config
