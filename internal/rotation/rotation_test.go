package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/krisinfo/internal/krisinfo"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestController(cfg krisinfo.RotationConfig) *Controller {
	if cfg.OldestDays == 0 {
		cfg.OldestDays = 7
	}
	c := New(cfg)
	c.now = func() time.Time { return testNow }
	return c
}

func item(id string, age time.Duration) krisinfo.FeedItem {
	return krisinfo.FeedItem{
		Identifier: id,
		Headline:   "headline " + id,
		Published:  testNow.Add(-age),
	}
}

func shownID(t *testing.T, d krisinfo.Display) string {
	t.Helper()
	require.Equal(t, krisinfo.DisplayItem, d.Kind)
	require.NotNil(t, d.Item)
	return d.Item.Identifier
}

func TestSelectForDisplay_LoadingBeforeFirstFeed(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})

	d := c.SelectForDisplay()
	assert.Equal(t, krisinfo.DisplayLoading, d.Kind)
	assert.Equal(t, 0, c.Cursor())
	assert.False(t, c.Loaded())
}

func TestSelectForDisplay_RotatesAndWraps(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	c.OnFeedReceived([]krisinfo.FeedItem{
		item("A", time.Hour),
		item("B", 2*time.Hour),
		item("C", 3*time.Hour),
	})

	assert.Equal(t, "A", shownID(t, c.SelectForDisplay()))
	assert.Equal(t, "B", shownID(t, c.SelectForDisplay()))
	d := c.SelectForDisplay()
	assert.Equal(t, "C", shownID(t, d))
	assert.Equal(t, 3, d.FeedCount)

	// Fourth tick wraps to the front.
	assert.Equal(t, "A", shownID(t, c.SelectForDisplay()))
}

func TestSelectForDisplay_StaleFrontIsIdempotent(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{OldestDays: 7})
	c.OnFeedReceived([]krisinfo.FeedItem{item("old", 8*24*time.Hour)})

	for i := 0; i < 3; i++ {
		d := c.SelectForDisplay()
		assert.Equal(t, krisinfo.DisplayNoCurrentItems, d.Kind)
		assert.Equal(t, 7, d.OldestDays)
		assert.Equal(t, 0, c.Cursor())
	}
}

func TestSelectForDisplay_StaleMidRotationRestartsSameTick(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{OldestDays: 7})
	c.OnFeedReceived([]krisinfo.FeedItem{
		item("fresh", time.Hour),
		item("old", 10*24*time.Hour),
	})

	assert.Equal(t, "fresh", shownID(t, c.SelectForDisplay()))

	// The cursor now points at the stale item; the tick resolves against
	// the front of the feed instead of skipping.
	assert.Equal(t, "fresh", shownID(t, c.SelectForDisplay()))
	assert.Equal(t, 1, c.Cursor())
}

func TestSelectForDisplay_StaleMidRotationWithStaleFront(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{OldestDays: 7})
	c.OnFeedReceived([]krisinfo.FeedItem{
		item("fresh", time.Hour),
		item("old", 10*24*time.Hour),
	})
	assert.Equal(t, "fresh", shownID(t, c.SelectForDisplay()))

	// Time passes without a refresh: now both items are stale.
	c.now = func() time.Time { return testNow.Add(8 * 24 * time.Hour) }

	d := c.SelectForDisplay()
	assert.Equal(t, krisinfo.DisplayNoCurrentItems, d.Kind)
	assert.Equal(t, 0, c.Cursor())
}

func TestSelectForDisplay_EmptyFeed(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	c.OnFeedReceived(nil)

	d := c.SelectForDisplay()
	assert.Equal(t, krisinfo.DisplayNoCurrentItems, d.Kind)
	assert.True(t, c.Loaded())
}

func TestSelectForDisplay_SilentSuppressesNotice(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{SilentWhenStale: true})
	c.OnFeedReceived([]krisinfo.FeedItem{item("old", 30*24*time.Hour)})

	d := c.SelectForDisplay()
	assert.Equal(t, krisinfo.DisplayNone, d.Kind)
	assert.Nil(t, d.Item)
}

func TestSelectForDisplay_CarriesShowDescription(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{ShowDescription: true})
	c.OnFeedReceived([]krisinfo.FeedItem{item("A", time.Hour)})

	assert.True(t, c.SelectForDisplay().ShowDescription)
}

func TestOnFailure_OverlaysWithoutTouchingFeed(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	c.OnFeedReceived([]krisinfo.FeedItem{item("A", time.Hour), item("B", time.Hour)})
	assert.Equal(t, "A", shownID(t, c.SelectForDisplay()))

	c.OnFailure(krisinfo.ServiceFailure{StatusCode: 600, Message: "dial tcp: timeout"})
	assert.Equal(t, 1, c.Cursor())
	assert.Len(t, c.Feed(), 2)
	assert.True(t, c.Loaded())

	d := c.SelectForDisplay()
	assert.Equal(t, "B", shownID(t, d))
	require.NotNil(t, d.Failure)
	assert.Equal(t, 600, d.Failure.StatusCode)
	assert.Equal(t, "dial tcp: timeout", d.Failure.Message)

	c.OnFeedReceived([]krisinfo.FeedItem{item("A", time.Hour), item("B", time.Hour)})
	assert.Nil(t, c.SelectForDisplay().Failure)
}

func TestOnFailure_BeforeLoadStillLoading(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	c.OnFailure(krisinfo.ServiceFailure{StatusCode: 503, Message: "unavailable"})

	d := c.SelectForDisplay()
	assert.Equal(t, krisinfo.DisplayLoading, d.Kind)
	require.NotNil(t, d.Failure)
	assert.Equal(t, 503, d.Failure.StatusCode)
	assert.False(t, c.Loaded())
}

func TestOnFeedReceived_KeepsCursorAcrossRefresh(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	feed := []krisinfo.FeedItem{item("A", time.Hour), item("B", time.Hour), item("C", time.Hour)}
	c.OnFeedReceived(feed)
	c.SelectForDisplay()
	c.SelectForDisplay()

	c.OnFeedReceived(feed)
	assert.Equal(t, 2, c.Cursor())
	assert.Equal(t, "C", shownID(t, c.SelectForDisplay()))
}

func TestOnFeedReceived_ShorterFeedWrapsCursor(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	c.OnFeedReceived([]krisinfo.FeedItem{item("A", time.Hour), item("B", time.Hour), item("C", time.Hour)})
	c.SelectForDisplay()
	c.SelectForDisplay()
	c.SelectForDisplay()
	require.Equal(t, 3, c.Cursor())

	c.OnFeedReceived([]krisinfo.FeedItem{item("X", time.Hour)})

	assert.NotPanics(t, func() {
		assert.Equal(t, "X", shownID(t, c.SelectForDisplay()))
	})
}

func TestOnFeedReceived_DropsItemsWithoutPublishTime(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	c.OnFeedReceived([]krisinfo.FeedItem{
		{Identifier: "undated"},
		item("A", time.Hour),
	})

	require.Len(t, c.Feed(), 1)
	assert.Equal(t, "A", shownID(t, c.SelectForDisplay()))
}

func TestOnFeedReceived_DoesNotAliasInput(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})
	feed := []krisinfo.FeedItem{item("A", time.Hour)}
	c.OnFeedReceived(feed)

	feed[0].Identifier = "mutated"
	assert.Equal(t, "A", shownID(t, c.SelectForDisplay()))
}

func TestHandle(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{})

	c.Handle(krisinfo.Notification{
		Kind:    krisinfo.NotificationServiceFailure,
		Failure: &krisinfo.ServiceFailure{StatusCode: 500, Message: "oops"},
	})
	require.NotNil(t, c.Failure())

	c.Handle(krisinfo.Notification{
		Kind: krisinfo.NotificationNewFeed,
		Feed: []krisinfo.FeedItem{item("A", time.Hour)},
	})
	assert.Nil(t, c.Failure())
	assert.True(t, c.Loaded())
}

func TestEndToEnd_FreshThenStale(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{OldestDays: 7})
	c.OnFeedReceived([]krisinfo.FeedItem{{
		Identifier: "sthlm",
		Published:  testNow.Add(-time.Hour),
		Areas:      []krisinfo.AreaRef{{Type: krisinfo.AreaTypeCounty, Description: "Stockholm"}},
	}})

	assert.Equal(t, "sthlm", shownID(t, c.SelectForDisplay()))

	c.now = func() time.Time { return testNow.Add(7*24*time.Hour + time.Minute) }
	assert.Equal(t, krisinfo.DisplayNoCurrentItems, c.SelectForDisplay().Kind)
}

func TestSelectForDisplay_ExactlyOldestIsStillFresh(t *testing.T) {
	c := newTestController(krisinfo.RotationConfig{OldestDays: 7})
	c.OnFeedReceived([]krisinfo.FeedItem{item("edge", 7*24*time.Hour)})

	assert.Equal(t, "edge", shownID(t, c.SelectForDisplay()))

	c.now = func() time.Time { return testNow.Add(time.Nanosecond) }
	assert.Equal(t, krisinfo.DisplayNoCurrentItems, c.SelectForDisplay().Kind)
}
