// Package services defines the external collaborator contracts
// (transcriber, compositor, publisher) and the shared error taxonomy
// used to classify collaborator failures into queue outcomes.
package services
