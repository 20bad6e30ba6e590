// Package daemon ties the long-running services together: it enforces
// single-instance execution with a file lock, recovers items stranded
// in processing statuses at startup, runs the workflow manager and the
// publish scheduler, and exposes the control operations the IPC surface
// forwards from the CLI.
package daemon
