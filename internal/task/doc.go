// Package task runs an ordered list of initialization tasks one at a time.
// Each task is classified as critical or recoverable: a failing recoverable
// task is recorded and the sequence continues, a failing critical task aborts
// the remaining sequence. Later tasks may rely on earlier ones having fully
// settled, so tasks never run concurrently.
package task
