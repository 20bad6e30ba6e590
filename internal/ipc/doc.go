// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket. The CLI is the only intended client; every method maps to one
// daemon operation and carries small JSON request/response structs.
package ipc
