package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
)

var DefaultShowsTTL = 10 * time.Minute

// Shows memoizes show listings (ordered item URLs) per show URL.
type Shows struct {
	c   *ccache.Cache[[]string]
	ttl time.Duration
	mux sync.Mutex
}

// NewShows returns a listing memo. A zero ttl disables memoization.
func NewShows(ttl time.Duration) *Shows {
	c := ccache.New(
		ccache.Configure[[]string]().
			MaxSize(100).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)
	return &Shows{
		c:   c,
		ttl: ttl,
		mux: sync.Mutex{},
	}
}

// Fetch returns a copy of the memoized listing for k, calling fetch on a miss
// or an expired entry. Errors are never memoized.
func (c *Shows) Fetch(k string, fetch func() ([]string, error)) ([]string, error) {
	if c.ttl <= 0 {
		return fetch()
	}

	c.mux.Lock()
	defer c.mux.Unlock()
	item, err := c.c.Fetch(k, c.ttl, fetch)
	if nil != err {
		return nil, err
	}
	return slices.Clone(item.Value()), nil
}

func (c *Shows) Delete(k string) {
	c.c.Delete(k)
}

func (c *Shows) Stop() {
	c.c.Stop()
}
