// Package notification contains the shared types of the fan-out plane:
// recipient roles, polymorphic push targets, provider payloads and in-app
// inbox records with their push-suppression flag.
package notification
