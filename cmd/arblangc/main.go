// Command arblangc compiles arblang mechanism source files into the
// PPACK-ABI C++ sources an Arbor-style simulator links against.
package main

import (
	"os"

	"github.com/arblang/arblangc/cmd/arblangc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
