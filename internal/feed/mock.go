package feed

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

var mockPosts = []string{
	"First post from ",
	"This is the second post from ",
	"A third post?  How interesting.  Thanks ",
	"Woah!  A fourth post from ",
}

// MockFetcher serves a fixed list of posts for a domain, one per fetch,
// with a random delay of 100ms to 300ms between fetches. Once the posts run
// out it asks not to be polled again for a long while.
type MockFetcher struct {
	domain string

	mu    sync.Mutex
	posts []string
}

var _ Fetcher = (*MockFetcher)(nil)

// NewMockFetcher returns a fetcher of canned posts for domain.
func NewMockFetcher(domain string) *MockFetcher {
	posts := make([]string, len(mockPosts))
	for i, p := range mockPosts {
		posts[i] = p + domain
	}
	return &MockFetcher{domain: domain, posts: posts}
}

func (f *MockFetcher) Fetch(context.Context) ([]Item, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.posts) == 0 {
		return nil, time.Now().Add(1000 * time.Second), nil
	}
	title := f.posts[0]
	f.posts = f.posts[1:]

	item := Item{
		Channel: f.domain,
		Title:   title,
		GUID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte(f.domain+"/"+title)).String(),
	}
	delay := 100*time.Millisecond + rand.N(200*time.Millisecond)
	return []Item{item}, time.Now().Add(delay), nil
}
