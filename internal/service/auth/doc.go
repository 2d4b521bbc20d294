// Package auth issues and introspects the signed access tokens used to
// recover a user's identity during bootstrap.
package auth
