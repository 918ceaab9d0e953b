// Package golden compares generated document archives against recorded
// baselines.
//
// Comparison is entry by entry over the union of both archives' paths, in
// sorted order, and stops at the first mismatch. Binary entries (by suffix)
// must match byte for byte. Text entries are compared after stripping
// newlines and tabs; if they still differ, both sides are run through
// xmlnorm and the normalized forms are compared. An empty namespace
// declaration such as xmlns:a="" is rejected on either side.
//
// On any failure the generated archive is written to ActualPath so it can
// be inspected or promoted to a new baseline. On success a stale file at
// that path is removed.
package golden
