// Package main implements bootstrapd, which loads the declared module scripts
// and recovers the signed-in user's state, either once or behind an HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
