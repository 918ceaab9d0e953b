// Package errmatch compares structured generator errors against expected
// shapes.
//
// Comparison has two phases. The first normalizes the actual error and the
// expected shape into canon objects, failing early on checks that are not
// plain equality: offsets, root-cause messages, and recorded lengths of
// large diagnostic arrays. The second compares the canonical JSON of the two
// normalized objects. Aggregated errors are normalized pairwise by position.
//
// Normalization never mutates its inputs.
package errmatch
