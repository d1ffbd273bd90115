// Package events carries task lifecycle events from the services that cause
// them to the components that react to them.
//
// Services emit a TaskEvent through an EventEmitter without knowing which
// handlers exist. The notification layer registers a handler that emails the
// task owner. Handler failures are reported to the emitter but never undo the
// change that produced the event.
package events
