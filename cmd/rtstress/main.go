// Package main implements the rtstress CLI tool.
//
// rtstress runs the rtsync primitives under concurrent load on the real
// host backend and checks their guarantees:
//
//	rtstress rwlock      # exclusion and writer preference
//	rtstress sema        # every post releases exactly one wait
//	rtstress threads     # join/detach lifecycle, no leaked handles
//	rtstress all         # everything above
//
// Set RTSYNC_OPTIONS=check=1 to verify primitive invariants on every
// transition while the scenarios run.
package main

import (
	"fmt"
	"os"

	"github.com/kolkov/rtsync/rtsync"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "rwlock", "sema", "threads", "all":
		os.Exit(stressCommand(command, os.Args[2:]))
	case "version", "--version", "-v":
		os.Exit(versionCommand(os.Args[2:]))
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// stressCommand runs the named scenarios and returns the exit code.
func stressCommand(command string, args []string) int {
	cfg, err := parseStressArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := rtsync.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}

	out := newReporter(os.Stdout)
	failed := runScenarios(out, scenariosFor(command), cfg)

	rtsync.Fini()
	if failed > 0 || rtsync.GetStats().Violations > 0 {
		return 1
	}
	return 0
}

// versionCommand prints version information. With -require it also checks
// that this build satisfies the given API version.
func versionCommand(args []string) int {
	info := rtsync.GetInfo()
	fmt.Printf("rtstress version %s (%s host, %s rwlock)\n", info.Version, info.Host, info.RWLock)

	if len(args) == 2 && args[0] == "-require" {
		if !rtsync.Compatible(args[1]) {
			fmt.Fprintf(os.Stderr, "rtsync %s does not satisfy %s\n", info.Version, args[1])
			return 1
		}
	}
	return 0
}

func printUsage() {
	fmt.Print(`rtstress - stress tests for rtsync primitives

USAGE:
    rtstress <command> [flags]

COMMANDS:
    rwlock     Reader/writer lock exclusion and writer preference
    sema       Counting semaphore post/wait accounting
    threads    Managed thread create/join/detach lifecycle
    all        Run every scenario
    version    Show version information (-require vX.Y.Z to check)
    help       Show this help message

FLAGS:
    -workers N    Concurrent workers per scenario (default 8)
    -iter N       Iterations per worker (default 1000)
    -v            Print per-scenario details

ENVIRONMENT:
    RTSYNC_OPTIONS    e.g. "check=1 max_threads=64 stack_max=1m"

`)
}
