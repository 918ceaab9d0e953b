// Package canon provides the sealed value model used to compare structured
// diagnostics, plus RFC 8785 canonical JSON and domain-separated digests.
//
// canon imports nothing internal. Key constraints:
//   - NO float types (numbers are int64) so serialization is deterministic
//   - Object keys are ordered by UTF-16 code units, never by map iteration
//   - Strings are NFC normalized at the serialization boundary
package canon
