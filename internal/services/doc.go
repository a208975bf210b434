// Package services defines shared utilities consumed by the archive engine,
// the catalog, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp experiment names, operations, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures surface with a
//     consistent classification (path not found, decode failure, duplicate
//     experiment, storage unavailable, ...) that callers test with errors.Is.
//   - ExitCode, which maps those markers onto process exit statuses.
package services
