// Package notifications sends ntfy push notifications for publish
// outcomes, manual-review queueing, and stage errors. With no topic
// configured the service is a no-op.
package notifications
