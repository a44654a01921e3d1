// Package daemon assembles and runs the escalation pipeline process:
// configuration, database, optional Redis dispatch log and MQTT broadcast,
// the push provider client, and the HTTP ingest server with graceful
// shutdown.
package daemon
