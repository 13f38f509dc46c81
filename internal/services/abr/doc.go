// Package abr is the Australian Business Register lookup client.
//
// SearchByABN issues the ABRSearchByABN query against the ABR XML search
// service and decodes the payload into Response. Outbound requests are paced by
// a token-bucket limiter so bursts of documents from one supplier do not trip
// the service's usage limits.
package abr
