package strategy

import "github.com/sarchlab/wnsched/scheduling"

// cqiCache keeps the channel estimates of the users of one frame.
type cqiCache struct {
	entries map[scheduling.UserID]scheduling.ChannelQualities
	flat    scheduling.ChannelQuality
}

func newCQICache(flat scheduling.ChannelQuality) *cqiCache {
	return &cqiCache{
		entries: make(map[scheduling.UserID]scheduling.ChannelQualities),
		flat:    flat,
	}
}

func (c *cqiCache) refresh(
	registry Registry,
	users []scheduling.UserID,
	dir Direction,
) {
	c.entries = make(map[scheduling.UserID]scheduling.ChannelQualities,
		len(users))

	for _, u := range users {
		cqi, found := registry.ChannelQualities(u, dir)
		if found && len(cqi) > 0 {
			c.entries[u] = cqi
		}
	}
}

// lookup returns the estimate of a user. It falls back to the flat estimate
// if no estimate is cached.
func (c *cqiCache) lookup(
	user scheduling.UserID,
) (scheduling.ChannelQualities, bool) {
	cqi, found := c.entries[user]
	if !found {
		return scheduling.ChannelQualities{c.flat}, false
	}

	return cqi, true
}

func (c *cqiCache) flatEstimate() scheduling.ChannelQualities {
	return scheduling.ChannelQualities{c.flat}
}
