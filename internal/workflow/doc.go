// Package workflow runs the naming pipeline's single worker.
//
// The worker takes one queued job at a time, fetches its extraction results,
// resolves the supplier ABN to a registered name, strips corporate suffixes,
// allocates a free "<date> <supplier>[ n].<ext>" name in the output directory,
// and moves the document there. Any missing field or failed step abandons the
// job and leaves the source file in place. Outcomes are counted in Stats and,
// when a Recorder is configured, journaled to history.
//
// Start launches the loop on its own goroutine; Stop clears the running flag
// and waits. Because Take is bounded by a timeout, an idle worker notices Stop
// within one timeout and a busy worker finishes its current job first.
package workflow
