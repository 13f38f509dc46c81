// Package preflight provides readiness checks for the filesystem paths and
// external services autoname depends on.
//
// The daemon runs CheckDirectories at startup and refuses to start when a
// directory is unusable. The CLI "autoname status" command runs RunAll, which
// additionally authenticates against the extraction service and resolves a
// known ABN against the business register.
package preflight
