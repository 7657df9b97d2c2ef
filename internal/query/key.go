package query

import (
	"strconv"
	"strings"
)

// Op tags the adapter operation a cached value came from.
type Op string

const (
	OpCurrentUser   Op = "current-user"
	OpUser          Op = "user"
	OpPost          Op = "post"
	OpPostsByAuthor Op = "posts-by-author"
	OpRecentPosts   Op = "recent-posts"
	OpExplorePosts  Op = "explore-posts"
	OpMostLiked     Op = "most-liked-posts"
	OpSearchPosts   Op = "search-posts"
)

// Key identifies one cached read: an operation and its parameter tuple.
// Args is the quoted, comma joined encoding of the parameters, so
// ("a,b") and ("a", "b") never share a key.
type Key struct {
	Op   Op
	Args string
}

func NewKey(op Op, args ...string) Key {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = strconv.Quote(a)
	}
	return Key{Op: op, Args: strings.Join(quoted, ",")}
}

func (k Key) String() string {
	return string(k.Op) + ":" + k.Args
}

// Target selects cache entries to invalidate. Both Key and Op are targets.
type Target interface {
	matches(Key) bool
}

func (k Key) matches(other Key) bool { return k == other }

func (o Op) matches(k Key) bool { return k.Op == o }
