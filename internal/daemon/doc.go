// Package daemon coordinates the long-running autoname process.
//
// It ties the directory watcher, the intake handler, the ingestion queue, and
// the worker into a single lifecycle guarded by a flock in the state
// directory, so only one instance ever watches a given installation. Start
// verifies directory access before anything runs; Stop shuts the producer
// side down before the consumer so no job is stranded mid-submit.
//
// Keep orchestration here. Pipeline steps live in intake and workflow; the
// daemon only starts, stops, and reports on them.
package daemon
