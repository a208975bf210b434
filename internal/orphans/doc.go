// Package orphans finds and removes archive directories that no catalog
// record points at. They are left behind when a delete removes the record
// but fails to remove the directory, or when a crash interrupts an insert.
package orphans
