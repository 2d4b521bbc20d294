// Package events publishes bootstrap lifecycle notifications.
//
// The orchestrator emits an Event when a run starts, completes or aborts, and
// when an individual module fails to load. Handlers register on an
// InMemoryEventEmitter; the Recorder handler keeps a bounded history that the
// HTTP API exposes.
package events
