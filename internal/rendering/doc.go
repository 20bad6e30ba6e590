// Package rendering runs the render stage: it asks the compositor
// collaborator to produce the final vertical composite for an approved
// clip and records where the artifact landed.
package rendering
