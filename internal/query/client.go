// Package query is the read cache between views and the API adapter.
//
// Every read goes through a Client under a structured Key. Values live in a
// bounded LRU until they go stale or a mutation invalidates them. Concurrent
// reads of the same key share one adapter call.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSize       = 512
	DefaultStaleAfter = 30 * time.Second
)

type entry struct {
	value     any
	fetchedAt time.Time
}

// Client is safe for concurrent use.
type Client struct {
	cache      *lru.Cache[Key, entry]
	group      singleflight.Group
	staleAfter time.Duration
	now        func() time.Time
	onLookup   func(op Op, hit bool)

	mu       sync.Mutex
	epoch    uint64 // bumped on every invalidation
	inflight map[string]*flight
}

// flight counts the shared calls running under one singleflight key. After a
// Forget an old and a new call may overlap.
type flight struct {
	key Key
	n   int
}

type Option func(*Client)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLookupObserver is called on every cached read with whether it hit.
func WithLookupObserver(fn func(op Op, hit bool)) Option {
	return func(c *Client) { c.onLookup = fn }
}

// NewClient creates a cache holding at most size entries. A non-positive
// staleAfter keeps entries until they are evicted or invalidated.
func NewClient(size int, staleAfter time.Duration, opts ...Option) (*Client, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[Key, entry](size)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	c := &Client{
		cache:      cache,
		staleAfter: staleAfter,
		now:        time.Now,
		onLookup:   func(Op, bool) {},
		inflight:   make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns the cached value for key, calling fn on a miss. With force
// the cache is skipped but the result is still stored. The shared call
// outlives a caller that gives up on ctx.
func (c *Client) Fetch(ctx context.Context, key Key, force bool, fn func(context.Context) (any, error)) (any, error) {
	if !force {
		if v, ok := c.lookup(key); ok {
			c.onLookup(key.Op, true)
			return v, nil
		}
	}
	c.onLookup(key.Op, false)

	name := key.String()
	ch := c.group.DoChan(name, func() (any, error) {
		epoch := c.begin(name, key)
		defer c.end(name)
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, v, epoch)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Set stores v under key, e.g. the fresh document a mutation returned.
func (c *Client) Set(key Key, v any) {
	c.cache.Add(key, entry{value: v, fetchedAt: c.now()})
}

// Invalidate drops every entry matched by one of targets. Fetches already in
// flight will not store their result, and later reads of a matched key start
// a fresh fetch instead of joining them.
func (c *Client) Invalidate(targets ...Target) {
	if len(targets) == 0 {
		return
	}
	c.mu.Lock()
	c.epoch++
	var forget []string
	for name, f := range c.inflight {
		if matchesAny(targets, f.key) {
			forget = append(forget, name)
		}
	}
	c.mu.Unlock()

	for _, k := range c.cache.Keys() {
		if matchesAny(targets, k) {
			c.cache.Remove(k)
		}
	}
	for _, name := range forget {
		c.group.Forget(name)
	}
}

func matchesAny(targets []Target, k Key) bool {
	for _, t := range targets {
		if t.matches(k) {
			return true
		}
	}
	return false
}

// Len reports the number of cached entries.
func (c *Client) Len() int {
	return c.cache.Len()
}

func (c *Client) lookup(key Key) (any, bool) {
	e, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if c.staleAfter > 0 && c.now().Sub(e.fetchedAt) >= c.staleAfter {
		c.cache.Remove(key)
		return nil, false
	}
	return e.value, true
}

// begin registers a shared call and returns the epoch it started in.
func (c *Client) begin(name string, key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.inflight[name]
	if !ok {
		f = &flight{key: key}
		c.inflight[name] = f
	}
	f.n++
	return c.epoch
}

func (c *Client) end(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[name]; ok {
		f.n--
		if f.n <= 0 {
			delete(c.inflight, name)
		}
	}
}

func (c *Client) store(key Key, v any, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.cache.Add(key, entry{value: v, fetchedAt: c.now()})
}
