package main

import (
	"fmt"
	"strconv"
	"strings"
)

// stressConfig holds parsed stress flags.
type stressConfig struct {
	workers    int
	iterations int
	verbose    bool
}

func defaultStressConfig() *stressConfig {
	return &stressConfig{
		workers:    8,
		iterations: 1000,
	}
}

// parseStressArgs parses scenario flags. Values may follow the flag or be
// attached with '=', e.g. "-workers 4" or "-workers=4".
func parseStressArgs(args []string) (*stressConfig, error) {
	cfg := defaultStressConfig()

	for i := 0; i < len(args); i++ {
		name, value, hasValue := splitFlag(args[i])

		switch name {
		case "-v":
			cfg.verbose = true
			continue
		case "-workers", "-iter":
		default:
			return nil, fmt.Errorf("unknown flag: %s", args[i])
		}

		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag %s needs a value", name)
			}
			i++
			value = args[i]
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("flag %s: want a positive integer, got %q", name, value)
		}
		if name == "-workers" {
			cfg.workers = n
		} else {
			cfg.iterations = n
		}
	}

	return cfg, nil
}

func splitFlag(arg string) (name, value string, hasValue bool) {
	return strings.Cut(arg, "=")
}
