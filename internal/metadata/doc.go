// Package metadata decides what descriptive text accompanies an archive when
// the source directory has no metadata sidecar.
//
// The flow is a small state machine: from StateStart the user picks empty,
// AI-generated, or custom metadata; the Resolver then produces the text,
// writes the sidecar atomically, and the machine reaches StateResolved. The
// Resolver itself only accepts a finished Decision so non-interactive callers
// can skip the machine entirely.
package metadata
