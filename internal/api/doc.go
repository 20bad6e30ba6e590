// Package api defines the transport-friendly views of queue and daemon
// state shared by the IPC surface and the CLI renderers. Conversions
// from storage models live here so both sides agree on field names and
// timestamp formats.
package api
