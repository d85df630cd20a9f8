// Command jwtverify verifies tokens and inspects keys using a go-jwt-manager
// YAML configuration.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
