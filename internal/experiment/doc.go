// Package experiment coordinates the archive store and the catalog.
//
// Service is the single entry point used by the CLI. Insert and Delete take
// an exclusive file lock so two imgvault processes never interleave writes to
// the same archive root; Query and Extract only read.
package experiment
