// Package registry tracks which module symbols have been defined and makes
// module loading idempotent.
//
// A Registry is an explicit symbol table passed to the code that needs it.
// Each symbol moves through absent → loading → present; once present its
// definition never changes and further definitions are silently ignored.
//
// A Guard wraps an injector.Injector so that loading an already-present
// symbol performs no network work, and concurrent loads of the same symbol
// through one Guard share a single injection.
package registry
