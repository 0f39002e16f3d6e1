package main

import (
	"fmt"
	"os"

	"github.com/okdaichi/sdnctl/internal/cli"
	"github.com/okdaichi/sdnctl/internal/version"
)

var (
	// overridable command handlers for easier unit-testing
	runController = cli.RunController
	runSwitch     = cli.RunSwitch
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command logic and returns an exit code (0 = success).
// Keeping this function small makes unit-testing straightforward.
func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	cmd := args[0]
	cmdArgs := args[1:]

	var err error
	switch cmd {
	case "controller":
		err = runController(cmdArgs)
	case "switch":
		err = runSwitch(cmdArgs)
	case "version":
		fmt.Println(version.Full())
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: sdnctl <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  controller <port> <configFile>                    Start the SDN controller")
	fmt.Fprintln(os.Stderr, "  switch <selfId> <host> <port> [-f <neighborId>]   Start a switch")
	fmt.Fprintln(os.Stderr, "  version                                           Print build version info")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  -admin string                 admin HTTP listen address (/health, /metrics)")
	fmt.Fprintln(os.Stderr, "  -observability-config string  optional runtime-defaults file (default observability.yaml)")
}
