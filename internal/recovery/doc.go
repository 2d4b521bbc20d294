// Package recovery resolves the signed-in user's identity from an ordered
// chain of sources and persists the converged state.
//
// Sources are consulted by ascending priority. The first source that yields
// an identity with a non-empty ID wins; a source that errors or times out
// counts as having no data. When nothing yields an identity, Resolve returns
// ErrNoIdentityFound, which callers treat as "signed out" rather than a crash.
package recovery
