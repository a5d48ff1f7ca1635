// Package cache provides the in-memory caches the bot consults before
// calling out to Discord.
package cache

import (
	"sync"
	"time"
)

// MemberCache caches token -> guild-membership lookups so the rules gate and
// the API do not hit Discord on every request. Entries expire after a fixed
// TTL; expired entries are evicted lazily on read.
type MemberCache struct {
	m       sync.Mutex
	ttl     time.Duration
	entries map[string]memberEntry
	now     func() time.Time
}

type memberEntry struct {
	isMember bool
	expires  time.Time
}

// NewMemberCache creates a MemberCache with the given entry TTL.
func NewMemberCache(ttl time.Duration) *MemberCache {
	return &MemberCache{
		ttl:     ttl,
		entries: make(map[string]memberEntry),
		now:     time.Now,
	}
}

// Get returns the cached membership for token. ok is false when the token
// was never cached or its entry expired.
func (c *MemberCache) Get(token string) (isMember, ok bool) {
	c.m.Lock()
	defer c.m.Unlock()
	e, found := c.entries[token]
	if !found {
		return false, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, token)
		return false, false
	}
	return e.isMember, true
}

// Set records the membership result for token.
func (c *MemberCache) Set(token string, isMember bool) {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries[token] = memberEntry{
		isMember: isMember,
		expires:  c.now().Add(c.ttl),
	}
}

// Reset drops all entries.
func (c *MemberCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries = make(map[string]memberEntry)
}

// Len returns the number of cached entries, expired included.
func (c *MemberCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.entries)
}
