// Package limits holds the compile-time bounds spec section 6 names
// (MAX_ID, MAX_LABEL, MAX_PATH, MAX_DIR, MAX_LINE_MODULE). The C original
// sized fixed buffers from these; Go has no such buffers, but the bounds
// are still part of the wire/compatibility contract (an id accepted by one
// build must be accepted by all builds), so they stay as named constants
// rather than disappearing into "whatever the string type allows".
package limits

const (
	// MaxID is the maximum length of an application identifier, including
	// the terminating NUL in the original C sizing; the usable length is
	// MaxID-1.
	MaxID = 128

	// MaxLabel is the maximum length of a rendered SELinux label.
	MaxLabel = 256

	// MaxPath is the maximum length of any filesystem path this module
	// handles or composes (declared paths, template paths, artefact paths).
	MaxPath = 4096

	// MaxDir is the maximum length of a configured directory (rules_dir).
	MaxDir = 2048

	// MaxLineModule is the maximum length of one generated .fc line.
	MaxLineModule = MaxPath + MaxLabel + 32
)
