// Command rshd serves a networked remote shell governed by a simulated
// preemptive CPU scheduler.
package main

import (
	"os"

	"github.com/samkreter/rshd/internal/rshd/cli"
)

func main() {
	os.Exit(cli.Run())
}
