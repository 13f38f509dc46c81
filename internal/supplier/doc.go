// Package supplier turns supplier ABNs into display names.
//
// Resolver owns the process-wide name cache and queries the business register
// on a miss. StripCorporateSuffixes normalizes the resolved name before it is
// used in a filename.
package supplier
