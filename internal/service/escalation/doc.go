// Package escalation wires the pipeline together: per-origin burst
// detectors, the single confirmation window, alert record persistence and
// the notification fan-out. It owns the exactly-one-record guarantee for
// every committed event.
package escalation
