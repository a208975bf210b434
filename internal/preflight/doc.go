// Package preflight provides readiness checks for the directories and the
// optional AI labeler that imgvault depends on.
//
// The CLI "status" command runs RunAll and renders each Result; insert runs
// the archive root check before packing so a read-only root fails fast.
package preflight
