// Package sypht is the document extraction client.
//
// Upload sends a document as multipart form data and returns the service's
// file id, which the rest of autoname treats as an opaque job handle.
// FetchResults blocks on the final-result endpoint and flattens the returned
// field list into Results. Authentication uses OAuth2 client credentials.
package sypht
