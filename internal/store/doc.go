// Package store packs a fixture tree into a single SQLite file.
//
// A bundle lets environments that cannot enumerate a directory, or that run
// far from the fixture checkout, load the same fixtures. It serves both
// sides of the loader: Names lists fixtures in pack order and Fetch returns
// their bytes.
//
// # Layout
//
//   - bundle: key/value metadata (id, root, packed count)
//   - fixtures: one row per file with its content and digest
//
// Every read verifies the stored digest, computed with canon.Digest under
// the fixture domain, so a truncated or edited bundle fails loudly.
//
// # Opening
//
// Open is for packing: it creates the file, applies the schema and runs
// migrations keyed on PRAGMA user_version. OpenReadOnly is for loading and
// refuses bundles written by a newer schema. Both use a rollback journal so
// the bundle stays a single file.
package store
