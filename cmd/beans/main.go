// Command beans checks and inspects bean definition files.
package main

import (
	"fmt"
	"os"
)

var (
	// Version information (set by ldflags during build).
	version = "dev"
	commit  = "unknown"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", Red("error:"), err)
		os.Exit(1)
	}
}
