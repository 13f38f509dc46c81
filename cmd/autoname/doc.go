// Command autoname is the operator CLI for the autoname document renamer.
//
// "autoname run" starts the daemon in the foreground. The remaining commands
// work without a running daemon: "lookup" resolves an ABN the way the worker
// would, "status" runs the readiness checks, "history" prints the outcome
// journal, and "config" creates or validates the configuration file.
package main
