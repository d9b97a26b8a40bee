//go:build !unix || rtsync_condrw

package rwlock

import (
	"github.com/kolkov/rtsync/internal/rtsync/check"
	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// Strategy names the implementation New returns in this build.
const Strategy = "fallback"

// New creates a reader/writer lock with the strategy chosen for this build.
func New(h native.Host, c *check.Checker) (RWLock, error) {
	l, err := NewFallback(h, c)
	if err != nil {
		return nil, err
	}
	return l, nil
}
