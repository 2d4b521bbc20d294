// Package postgres provides the PostgreSQL implementation of the
// store.StateStore interface. It handles connection setup, query execution
// and the mapping of driver errors onto the store package's error values.
package postgres
