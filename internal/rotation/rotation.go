// Package rotation picks which feed item the display shows on each tick.
//
// A [Controller] is not safe for concurrent use. The scheduler owns it from a
// single goroutine; feeds arrive as whole slices and are swapped in, never
// edited in place.
package rotation

import (
	"time"

	"github.com/jdholdren/krisinfo/internal/filter"
	"github.com/jdholdren/krisinfo/internal/krisinfo"
)

type Controller struct {
	cfg krisinfo.RotationConfig
	now func() time.Time

	feed    []krisinfo.FeedItem
	cursor  int
	failure *krisinfo.ServiceFailure
	loaded  bool
}

func New(cfg krisinfo.RotationConfig) *Controller {
	return &Controller{
		cfg: cfg,
		now: time.Now,
	}
}

// OnFeedReceived replaces the current feed with the result of a successful poll.
//
// Items without a valid publish time are dropped. The cursor carries over so
// rotation continues smoothly, unless it no longer points into the new feed.
func (c *Controller) OnFeedReceived(items []krisinfo.FeedItem) {
	feed := filter.Dated(items)

	if !c.loaded || c.cursor >= len(feed) {
		c.cursor = 0
	}
	c.feed = feed
	c.failure = nil
	c.loaded = true
}

// OnFailure records a failed poll. The feed and cursor are left alone so the
// last good feed keeps rotating under the failure notice.
func (c *Controller) OnFailure(failure krisinfo.ServiceFailure) {
	c.failure = &failure
}

// Handle applies a poll notification.
func (c *Controller) Handle(n krisinfo.Notification) {
	switch n.Kind {
	case krisinfo.NotificationNewFeed:
		c.OnFeedReceived(n.Feed)
	case krisinfo.NotificationServiceFailure:
		if n.Failure != nil {
			c.OnFailure(*n.Failure)
		}
	}
}

// SelectForDisplay decides what the current tick shows and moves the cursor
// for the next one.
func (c *Controller) SelectForDisplay() krisinfo.Display {
	d := c.selectItem()
	d.ShowDescription = c.cfg.ShowDescription
	if c.failure != nil {
		f := *c.failure
		d.Failure = &f
	}

	return d
}

func (c *Controller) selectItem() krisinfo.Display {
	if !c.loaded {
		return krisinfo.Display{Kind: krisinfo.DisplayLoading}
	}

	var (
		now    = c.now()
		maxAge = c.cfg.MaxAge()
	)
	for {
		if c.cursor >= len(c.feed) {
			c.cursor = 0
		}
		if len(c.feed) == 0 {
			return c.noCurrentItems()
		}

		item := c.feed[c.cursor]
		if now.Sub(item.Published) > maxAge {
			if c.cursor == 0 {
				// The freshest item is already too old. Stay put so the next
				// tick checks again, possibly against a newer feed.
				return c.noCurrentItems()
			}

			// Everything past here is older still: start over from the front
			// within this same tick.
			c.cursor = 0
			continue
		}

		c.cursor++
		return krisinfo.Display{
			Kind:      krisinfo.DisplayItem,
			Item:      &item,
			FeedCount: len(c.feed),
		}
	}
}

func (c *Controller) noCurrentItems() krisinfo.Display {
	if c.cfg.SilentWhenStale {
		return krisinfo.Display{Kind: krisinfo.DisplayNone}
	}

	return krisinfo.Display{
		Kind:       krisinfo.DisplayNoCurrentItems,
		OldestDays: c.cfg.OldestDays,
	}
}

// Cursor is the index the next tick will look at first.
func (c *Controller) Cursor() int {
	return c.cursor
}

// Loaded reports whether a feed has ever been received.
func (c *Controller) Loaded() bool {
	return c.loaded
}

// Feed is the current feed. Callers must not modify it.
func (c *Controller) Feed() []krisinfo.FeedItem {
	return c.feed
}

// Failure is the failure overlay, if any.
func (c *Controller) Failure() *krisinfo.ServiceFailure {
	return c.failure
}
