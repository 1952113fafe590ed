// Package feed holds the in-memory synchronization state for the wall:
// the ordered post list, the last-seen marker, and the reconciliation of
// live insert notifications into that list. All methods must be called
// from a single goroutine; in the TUI that goroutine is the bubbletea
// update loop.
package feed

import (
	"github.com/gwientjes/wall-cli/internal/wall"
)

const (
	// FetchWindow is the number of posts requested on the initial load.
	FetchWindow = 50
	// MaxLivePosts bounds the list after live insertions accumulate.
	// Oldest posts are dropped once the cap is exceeded.
	MaxLivePosts = 200
)

// List is the canonical ordered collection of posts, newest first.
type List struct {
	posts  []wall.Post
	seen   map[string]struct{}
	marker string
	cap    int
}

func NewList() *List {
	return NewListWithCap(MaxLivePosts)
}

func NewListWithCap(max int) *List {
	if max < 1 {
		max = MaxLivePosts
	}
	return &List{seen: make(map[string]struct{}), cap: max}
}

// Replace swaps the list wholesale for the result of a bulk fetch. The
// input is assumed sorted descending by creation time; the newest post's
// id becomes the last-seen marker.
func (l *List) Replace(posts []wall.Post) {
	l.posts = append(l.posts[:0:0], posts...)
	l.seen = make(map[string]struct{}, len(posts))
	for _, p := range posts {
		l.seen[p.ID] = struct{}{}
	}
	l.marker = ""
	if len(l.posts) > 0 {
		l.marker = l.posts[0].ID
	}
	l.evict()
}

// Apply reconciles one live insert notification. Notifications whose id
// matches the last-seen marker or any post already held are discarded
// (echoes of the initial fetch, duplicate deliveries, replays). New posts
// are prepended and become the marker. Reports whether the post was
// applied.
func (l *List) Apply(post wall.Post) bool {
	if post.ID == "" || post.ID == l.marker {
		return false
	}
	if _, dup := l.seen[post.ID]; dup {
		return false
	}
	l.posts = append([]wall.Post{post}, l.posts...)
	l.seen[post.ID] = struct{}{}
	l.marker = post.ID
	l.evict()
	return true
}

func (l *List) evict() {
	for len(l.posts) > l.cap {
		last := l.posts[len(l.posts)-1]
		delete(l.seen, last.ID)
		l.posts = l.posts[:len(l.posts)-1]
	}
}

// Posts returns the ordered posts, newest first. The returned slice is
// the list's backing storage and must not be mutated.
func (l *List) Posts() []wall.Post {
	return l.posts
}

// Marker returns the id of the most recently applied post, or "" when no
// post has been observed yet.
func (l *List) Marker() string {
	return l.marker
}

func (l *List) Len() int {
	return len(l.posts)
}
