// Package clock provides a hybrid logical clock used to stamp document
// activity on a site.
package clock

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	Lower   = -1
	Equal   = 0
	Greater = 1
)

// Timestamp is an HLC reading. WallTime is in Unix nanoseconds.
type Timestamp struct {
	WallTime uint64 `json:"wall_time" yaml:"wall_time"`
	Logical  uint64 `json:"logical" yaml:"logical"`
	SiteID   string `json:"site_id" yaml:"site_id"`
}

func (t Timestamp) IsZero() bool                { return t.WallTime == 0 && t.Logical == 0 }
func (t Timestamp) Before(other Timestamp) bool { return Compare(t, other) == Lower }
func (t Timestamp) After(other Timestamp) bool  { return Compare(t, other) == Greater }

func (t Timestamp) String() string {
	return fmt.Sprintf("(%s, L=%d, site=%s)",
		time.Unix(0, int64(t.WallTime)).UTC().Format(time.RFC3339Nano),
		t.Logical, t.SiteID)
}

// Compare orders timestamps by wall time, then logical counter, then site id.
func Compare(a, b Timestamp) int {
	switch {
	case a.WallTime < b.WallTime:
		return Lower
	case a.WallTime > b.WallTime:
		return Greater
	case a.Logical < b.Logical:
		return Lower
	case a.Logical > b.Logical:
		return Greater
	case a.SiteID < b.SiteID:
		return Lower
	case a.SiteID > b.SiteID:
		return Greater
	}
	return Equal
}

type pair struct {
	wall    uint64
	logical uint64
}

// Clock is a lock-free HLC generator.
type Clock struct {
	siteID string
	st     atomic.Pointer[pair]
	now    func() time.Time
}

func New(siteID string) *Clock {
	c := &Clock{siteID: siteID, now: time.Now}
	c.st.Store(&pair{})
	return c
}

// WithSource replaces the physical time source.
func (c *Clock) WithSource(now func() time.Time) *Clock {
	c.now = now
	return c
}

func (c *Clock) nowNano() uint64 {
	return uint64(c.now().UnixNano())
}

// Now returns a timestamp strictly greater than every one this clock has
// produced before.
func (c *Clock) Now() Timestamp {
	for {
		now := c.nowNano()
		p := c.st.Load()

		next := pair{wall: now}
		if now <= p.wall {
			next = pair{wall: p.wall, logical: p.logical + 1}
		}

		if c.st.CompareAndSwap(p, &next) {
			return Timestamp{WallTime: next.wall, Logical: next.logical, SiteID: c.siteID}
		}
	}
}
