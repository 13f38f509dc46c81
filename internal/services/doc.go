// Package services defines shared utilities consumed by the worker and the
// external service clients.
//
// Key responsibilities:
//   - Context helpers that stamp job handles, source paths, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent journal statuses (skipped vs failed).
//
// Subpackages sypht and abr hold the HTTP clients for document extraction and
// business-name lookup.
package services
