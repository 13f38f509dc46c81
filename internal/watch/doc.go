// Package watch adapts fsnotify to the single-handler event interface used by
// intake. Only create events are delivered; writes, renames out of the
// directory, and removals are ignored.
package watch
