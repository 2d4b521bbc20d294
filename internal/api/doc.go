// Package api exposes the bootstrap orchestrator over HTTP: its phase, the
// last run, the module registry and recent lifecycle events, plus an
// endpoint to trigger a new run.
package api
