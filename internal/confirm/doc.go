// Package confirm implements the cancellable confirmation window between a
// candidate emergency event and its commit. The countdown is a cancellable
// timer with a single-assignment resolution, so a cancel issued before
// expiry always wins and an uncancelled expiry commits exactly once.
package confirm
