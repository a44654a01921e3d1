// Package inbox persists in-app notification records, one row per
// recipient surface. Records derived from alerts carry suppress_push so
// the notification path never pushes them a second time.
package inbox
