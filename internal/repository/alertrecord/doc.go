// Package alertrecord implements persistence for alert records.
//
// The PostgresStore writes one row per committed event into the
// alert_records table and exposes a Store interface that the escalation
// service depends on. The committed event id doubles as the primary key,
// so a redelivered event fails the insert instead of duplicating the row.
package alertrecord
