// Package directory resolves people out of the residence database: push
// tokens per recipient category, the security staff roster, and the
// occupant behind a sensor device or unit number.
//
// An absent person or token is reported as not-found rather than an error;
// only an unreachable database is an error. Callers decide whether a miss
// is fatal for the event they are handling.
package directory
