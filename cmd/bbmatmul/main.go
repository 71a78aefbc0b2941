// Command bbmatmul offloads a seeded matrix multiply to the simulated
// scratchpad accelerator and checks the product against a host reference.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd(atexit.Exit).Execute(); err != nil {
		atexit.Exit(1)
	}
}
