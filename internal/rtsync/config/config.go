// Package config reads rtsync options from the environment.
//
// Options are a space-separated list of key=value pairs in the
// RTSYNC_OPTIONS environment variable:
//
//	RTSYNC_OPTIONS="stack_max=4m max_threads=256 check=1 report=stderr"
//
// Keys:
//   - stack_max: cap on the default thread stack size, in bytes, with an
//     optional k, m or g suffix
//   - max_threads: maximum number of live managed threads, 0 for no limit
//   - check: 1 to verify primitive invariants, 0 to skip
//   - report: where invariant reports and the summary go: stderr, stdout
//     or none
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// EnvVar is the environment variable holding the options.
const EnvVar = "RTSYNC_OPTIONS"

// Config holds the parsed options.
type Config struct {
	StackMax   uint64
	MaxThreads int
	Check      bool
	Report     string
}

// Default returns the options used when RTSYNC_OPTIONS is unset.
func Default() Config {
	return Config{
		StackMax: native.DefaultStackMax,
		Check:    false,
		Report:   "stderr",
	}
}

// HostOptions converts c into options for native.NewHost.
func (c Config) HostOptions() native.Options {
	return native.Options{
		StackMax:   c.StackMax,
		MaxThreads: c.MaxThreads,
	}
}

// Writer returns the report destination, or nil for "none".
func (c Config) Writer() io.Writer {
	switch c.Report {
	case "stdout":
		return os.Stdout
	case "none":
		return nil
	default:
		return os.Stderr
	}
}

// OptionError reports a malformed option.
type OptionError struct {
	Option  string // The offending key=value text
	Message string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: %q: %s", EnvVar, e.Option, e.Message)
}

// FromEnv parses RTSYNC_OPTIONS on top of Default.
func FromEnv() (Config, error) {
	return Parse(os.Getenv(EnvVar))
}

// Parse parses an options string on top of Default. Later keys override
// earlier ones.
func Parse(s string) (Config, error) {
	cfg := Default()
	for _, field := range strings.Fields(s) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return cfg, &OptionError{Option: field, Message: "want key=value"}
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, &OptionError{Option: field, Message: err.Error()}
		}
	}
	return cfg, nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "stack_max":
		n, err := parseSize(value)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("stack_max must be positive")
		}
		c.StackMax = n
	case "max_threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return errors.New("max_threads must be a non-negative integer")
		}
		c.MaxThreads = n
	case "check":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.New("check must be 0 or 1")
		}
		c.Check = b
	case "report":
		switch value {
		case "stderr", "stdout", "none":
			c.Report = value
		default:
			return errors.New("report must be stderr, stdout or none")
		}
	default:
		return errors.New("unknown option")
	}
	return nil
}

// parseSize parses a byte count with an optional k, m or g suffix.
func parseSize(s string) (uint64, error) {
	shift := 0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'k', 'K':
			shift = 10
		case 'm', 'M':
			shift = 20
		case 'g', 'G':
			shift = 30
		}
		if shift > 0 {
			s = s[:n-1]
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid size")
	}
	if n > math.MaxUint64>>shift {
		return 0, errors.New("size overflows")
	}
	return n << shift, nil
}
