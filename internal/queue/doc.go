// Package queue holds uploaded documents between intake and the worker.
//
// The queue is in-memory and bounded. Submit blocks when it is full so a burst
// of arrivals stalls the watcher rather than growing memory, and Take waits
// for a bounded time so the worker can notice shutdown between jobs. Nothing
// is persisted; pending jobs are lost on restart.
package queue
