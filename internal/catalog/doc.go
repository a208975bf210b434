// Package catalog persists the experiment index in SQLite.
//
// Each experiment name maps to exactly one record holding the author, the
// container path and the metadata text. The schema is versioned through
// embedded SQL migrations tracked in schema_migrations; Open applies any that
// are pending. Duplicate names surface as services.ErrDuplicateExperiment and
// lookups of unknown names as services.ErrNotFound.
package catalog
