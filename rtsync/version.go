package rtsync

import (
	"golang.org/x/mod/semver"

	"github.com/kolkov/rtsync/internal/rtsync/rwlock"
)

// Version information for rtsync.
const (
	// Version is the current version of the rtsync API.
	Version = "0.1.0"

	// VersionMajor is the major component of Version.
	VersionMajor = 0
	// VersionMinor is the minor component of Version.
	VersionMinor = 1
	// VersionPatch is the patch component of Version.
	VersionPatch = 0
)

// Info describes the rtsync build in use.
type Info struct {
	Version string

	// Host is the threading model, "posix" or "win32".
	Host string

	// RWLock is the reader/writer lock strategy, "native" or "fallback".
	RWLock string

	// Checking reports whether invariant checks are enabled.
	Checking bool
}

// GetInfo returns information about the rtsync build.
//
// Example:
//
//	info := rtsync.GetInfo()
//	fmt.Printf("rtsync %s (%s, %s rwlock)\n", info.Version, info.Host, info.RWLock)
func GetInfo() Info {
	s := state()
	return Info{
		Version:  Version,
		Host:     s.host.Name(),
		RWLock:   rwlock.Strategy,
		Checking: s.checker != nil,
	}
}

// Compatible reports whether this build satisfies a caller that requires
// API version required, e.g. "v0.1.0". The major versions must match and
// this build must be at least as new.
func Compatible(required string) bool {
	if !semver.IsValid(required) {
		return false
	}
	have := "v" + Version
	return semver.Major(have) == semver.Major(required) &&
		semver.Compare(have, required) >= 0
}
