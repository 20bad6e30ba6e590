// Package logging builds the shared slog logger: a console handler for
// interactive use, a JSON handler for machine-readable logs, attr
// helpers, and standardized field keys used across the pipeline.
package logging
