// Package sensor watches telemetry snapshots for false->true edges of the
// alert flag, resolves the owning occupant (explicit device association
// first, unit-suffix fallback second) and commits a sensor alert without a
// confirmation window.
package sensor
