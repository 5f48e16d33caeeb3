package main

import (
	"fmt"
	"os"

	"github.com/sofmeright/loq/src/cli/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "loq panicked. This is a bug.")
			fmt.Fprintln(os.Stderr, "Please report it at https://github.com/sofmeright/loq/issues")
			panic(r)
		}
	}()

	os.Exit(cmd.Execute())
}
