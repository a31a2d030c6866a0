// Package uplink is the upload engine for pushing dataset files into
// platform-issued S3 storage. It splits large files into checksummed
// chunks, uploads chunks concurrently under a bounded budget, and either
// completes a file's multipart transaction or rolls it back cleanly, so a
// file arrives intact or not at all.
//
// The engine is built from the temporary credential grant the platform
// issues per batch and exposes two surfaces: a stream of per-file terminal
// outcomes and a poll-driven progress snapshot.
//
// Key behaviors:
//   - Files below the 5MB part-size floor use a single-shot PUT
//   - Parts upload concurrently, bounded per transaction (default 3)
//   - Files upload concurrently, bounded per batch (default 5)
//   - Any part failure aborts that file's transaction; siblings continue
//   - Per-part SHA-256 checksums are verified server-side
//   - No engine-level retry; transport retry is caller-configurable
//
// Example usage:
//
//	uploader, err := uplink.New(cred)
//	if err != nil {
//	    return err
//	}
//
//	outcomes, err := uploader.UploadFiles(ctx,
//	    uplinktypes.FileUpload{Path: "/data/scan-001.dcm"},
//	    uplinktypes.FileUpload{Path: "/data/scan-002.dcm"},
//	)
//	if err != nil {
//	    return err
//	}
//	for outcome := range outcomes {
//	    if outcome.Aborted() {
//	        log.Printf("upload failed: %v", outcome.Err)
//	    }
//	}
package uplink
