package cache

import (
	"time"

	"simple-cache/internal/clock"
)

// DefaultTTLSeconds is the fallback lifetime of an entry: 15 minutes.
const DefaultTTLSeconds = 15 * 60

// Base carries what every driver shares: its name, the mutable default TTL
// and the clock all "now" reads go through. Drivers embed it.
type Base struct {
	name  string
	ttl   int
	clock clock.Clock
}

// NewBase returns a Base with the default TTL. A nil clock means the system
// clock.
func NewBase(name string, c clock.Clock) Base {
	return Base{
		name:  name,
		ttl:   DefaultTTLSeconds,
		clock: clock.OrSystem(c),
	}
}

// Name returns the driver name.
func (b *Base) Name() string {
	return b.name
}

// DefaultTTL returns the TTL in seconds used when Set gets the zero TTL.
func (b *Base) DefaultTTL() int {
	return b.ttl
}

// SetDefaultTTL changes the default TTL in seconds.
func (b *Base) SetDefaultTTL(ttl int) {
	b.ttl = ttl
}

// Now reads the driver clock.
func (b *Base) Now() time.Time {
	return b.clock.Now()
}

// Expiry resolves ttl into an absolute expiration in epoch seconds. store is
// false when the resolved expiration is not in the future, in which case the
// key is to be deleted instead of written.
func (b *Base) Expiry(ttl TTL) (expiresAt int64, store bool, err error) {
	return ttl.expiresAt(b.Now(), b.ttl)
}

// Live reports whether an entry expiring at expiresAt is still valid now.
func (b *Base) Live(expiresAt int64) bool {
	return expiresAt > b.Now().Unix()
}
