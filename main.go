// The main package for the planning-sync executable.
package main

import (
	"github.com/mkedev/planning-sync/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
