// Package locker serializes work per key, across processes when redis is
// configured and within the process otherwise.
package locker

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLockTimeout = errors.New("lock_timeout")
	ErrEmptyKey    = errors.New("lock key is empty")
)

// Locker hands out exclusive locks by key. The returned release func must
// be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const (
	defaultTTL  = 15 * time.Second
	defaultWait = 10 * time.Second
	pollEvery   = 25 * time.Millisecond
)

// AgentKey is the lock key guarding an agent's commission record.
func AgentKey(agentID string) string {
	return "agencydesk:lock:agent-commission:" + agentID
}
