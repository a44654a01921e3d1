// Package dispatchlog remembers which alert records were already fanned
// out. The Redis-backed log gives the router its at-most-once dispatch
// property under at-least-once event delivery.
package dispatchlog
