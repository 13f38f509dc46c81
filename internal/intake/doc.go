// Package intake is the event-driven front end of the pipeline.
//
// For each created file with an accepted extension it uploads the document to
// the extraction service and queues the returned job handle for the worker.
// Failures are logged and the file is dropped; the watcher never sees an
// error. Queue backpressure blocks the caller, which is the watcher's delivery
// goroutine.
package intake
