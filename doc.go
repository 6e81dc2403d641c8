// Package graphstore saves running object graphs and merges them back.
//
// Save walks a root value and writes a structural snapshot, state.json,
// to a storage location directory. Arrays (*array.Dense) with more
// elements than a threshold are moved to the blob store in the extern
// subdirectory and referenced by id; the live array is rebound to the
// stored entry, so later writes through it reach the entry directly.
//
// Load does not rebuild the graph. It merges the snapshot into an
// existing root field by field, keeping the identity of the live values
// it merges into. Fields the snapshot lacks are left alone, fields the
// live value lacks are dropped, and records without a live counterpart
// are constructed from a registry of type names.
//
// Both end with a garbage collection of the blobs the pass did not
// reference.
//
// # Recovery
//
// Conditions such as unknown types, missing blobs or incompatible
// values do not fail a save or load. They are reported as Warnings,
// through the logger, the OnWarning option and the returned Report.
// Only I/O errors on the snapshot or the blob store are returned.
//
// # Concurrency
//
// Saves and loads are synchronous and do no locking. Calls against the
// same location must be serialized by the caller.
//
// # Values
//
// Values are stored through the capabilities of package live: structs,
// maps with string keys, slices, arrays and primitives work out of the
// box, and types can implement live.HasFields, live.HasIndex or
// live.Stateful to control how they are stored. Functions are never
// stored, nor are fields whose name starts with the private prefix "_".
package graphstore
