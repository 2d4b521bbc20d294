// Package bootstrap sequences application start-up: load every declared
// module, then recover the user's session.
//
// Module loads are recoverable; a missing module degrades the application
// but does not stop the run. Session recovery is critical, except that
// finding no identity is a normal outcome (the user is signed out).
package bootstrap
