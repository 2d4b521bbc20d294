// Package store defines the key-value StateStore the bootstrap persists the
// converged user state into, and the errors its implementations return.
package store
