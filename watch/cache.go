package watch

// LinkCache holds the prefetched URL of the next episode. It keeps at most
// one entry and an entry is gone once taken.
type LinkCache struct {
	episode int
	url     string
	ok      bool
}

// Insert replaces whatever the cache held.
func (c *LinkCache) Insert(episode int, url string) {
	c.episode, c.url, c.ok = episode, url, true
}

// Take returns the URL of episode and empties the cache. An entry for any
// other episode is stale and is dropped as well.
func (c *LinkCache) Take(episode int) (string, bool) {
	url, hit := c.url, c.ok && c.episode == episode
	*c = LinkCache{}
	if !hit {
		return "", false
	}
	return url, true
}

// Len is 0 or 1.
func (c *LinkCache) Len() int {
	if c.ok {
		return 1
	}
	return 0
}
