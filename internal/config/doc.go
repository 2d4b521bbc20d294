// Package config loads bootstrapd settings from an optional file and
// BOOTSTRAP_-prefixed environment variables, then validates them.
package config
