// Package ui echoes shell command lifecycle events as concise console lines
// when human-readable logging is active, leaving detailed telemetry to the
// structured logger.
package ui
