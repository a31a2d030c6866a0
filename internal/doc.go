// Package internal contains private implementation details for the upload engine.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - s3api: interface seam over the storage backend
//   - chunk: chunked file reading with per-chunk checksums
//   - transfer: multipart transaction coordination
//   - operations: single-shot upload implementation
//   - pool: chunk buffer reuse
//   - testutil: mocks and test helpers
package internal
