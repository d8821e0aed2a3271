// Command gofac-scan plans the activation order of the services described
// by one or more YAML manifests.
package main

import (
	"io"
	"os"
)

// version can be set during build with -ldflags
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		return exitCode(err)
	}
	return ExitCodeSuccess
}
