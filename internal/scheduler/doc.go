// Package scheduler dispatches publish-ready clips to the publishing
// collaborator on a rate-limited schedule. Each tick it picks the
// oldest publish-ready item, checks the configured daily windows and
// rolling limits against committed publish events, and runs exactly one
// publish attempt. Claims and outcomes are compare-and-set status
// transitions, so the scheduler tolerates concurrent writers the same
// way the workflow manager does.
package scheduler
