/*
Package observability provides Prometheus instrumentation for stash sessions.

Metrics is nil-safe: a nil *Metrics records nothing, so sessions and handlers can call it
unconditionally.
*/
package observability
