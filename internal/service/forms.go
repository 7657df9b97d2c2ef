package service

import (
	"sync"

	"dismoment/internal/view"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultFormCacheSize = 4096

// formRegistry keeps one instance of each form per browser, so a second
// submit while the first is running is rejected instead of doubled.
// Auth forms are keyed by client address and account, the rest by session id.
type formRegistry struct {
	mu          sync.Mutex
	login       *lru.Cache[string, *view.LoginForm]
	signup      *lru.Cache[string, *view.SignupForm]
	post        *lru.Cache[string, *view.PostForm]
	profile     *lru.Cache[string, *view.ProfileForm]
	profileView *lru.Cache[string, *view.ProfileView]
}

func newFormRegistry(size int) *formRegistry {
	if size <= 0 {
		size = defaultFormCacheSize
	}
	return &formRegistry{
		login:       mustLRU[*view.LoginForm](size),
		signup:      mustLRU[*view.SignupForm](size),
		post:        mustLRU[*view.PostForm](size),
		profile:     mustLRU[*view.ProfileForm](size),
		profileView: mustLRU[*view.ProfileView](size),
	}
}

// mustLRU panics only for a non-positive size, which newFormRegistry rules out.
func mustLRU[T any](size int) *lru.Cache[string, T] {
	c, err := lru.New[string, T](size)
	if err != nil {
		panic(err)
	}
	return c
}

func formFor[T any](r *formRegistry, c *lru.Cache[string, T], key string, build func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := c.Get(key); ok {
		return f
	}
	f := build()
	c.Add(key, f)
	return f
}

// drop forgets the forms of a session that ended.
func (r *formRegistry) drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.post.Remove(sessionID)
	r.profile.Remove(sessionID)
	r.profileView.Remove(sessionID)
}
