package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// entitlementLocker serializes consumption per entitlement id.
// Striping keeps the lock table fixed-size regardless of how many
// distinct ids the service has seen.
type entitlementLocker struct {
	stripes [lockStripes]sync.Mutex
}

func newEntitlementLocker() *entitlementLocker {
	return &entitlementLocker{}
}

func (l *entitlementLocker) Lock(entitlementId string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(entitlementId))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
