// Package krisinfo holds the types shared by the fetcher, the area filter,
// the rotation controller and the presenters.
package krisinfo

import (
	"context"
	"time"
)

const (
	AreaTypeCounty  = "County"
	AreaTypeCountry = "Country"

	// NationalArea is the Country description upstream uses for nationwide items.
	NationalArea = "Sverige"
)

type (
	// FeedItem is a single crisis announcement.
	FeedItem struct {
		Identifier string    `json:"identifier"`
		Headline   string    `json:"headline"`
		Preamble   string    `json:"preamble,omitempty"`
		BodyText   string    `json:"bodyText,omitempty"`
		Web        string    `json:"web,omitempty"`
		Published  time.Time `json:"published"`
		SenderName string    `json:"senderName,omitempty"`

		// Areas is nil when upstream did not tag the item at all, which is not
		// the same as an empty list.
		Areas []AreaRef `json:"areas"`
	}

	// AreaRef is a geographic tag on an item.
	AreaRef struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}

	FilterConfig struct {
		// County names to match. Empty matches everything.
		Areas []string
		// Include items tagged with the whole country regardless of Areas.
		AlwaysIncludeNational bool
	}

	RotationConfig struct {
		PollInterval    time.Duration
		DisplayInterval time.Duration
		OldestDays      int
		SilentWhenStale bool
		ShowDescription bool
	}

	// ServiceFailure describes why the last poll failed.
	ServiceFailure struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}
)

// MaxAge is how old an item may be before it is considered stale.
func (c RotationConfig) MaxAge() time.Duration {
	return time.Duration(c.OldestDays) * 24 * time.Hour
}

// DisplayKind is the outcome of a single presentation tick.
type DisplayKind string

const (
	DisplayLoading        DisplayKind = "loading"
	DisplayItem           DisplayKind = "item"
	DisplayNoCurrentItems DisplayKind = "noCurrentItems"
	// DisplayNone is a tick with nothing to show: silent mode swallowed the
	// no-current-items notice.
	DisplayNone DisplayKind = "none"
)

// Display is what the presentation surface should show for one tick.
type Display struct {
	Kind DisplayKind

	// Set for DisplayItem.
	Item      *FeedItem
	FeedCount int

	// Set for DisplayNoCurrentItems, to word the notice.
	OldestDays int

	ShowDescription bool

	// Overlaid on any kind while the last poll failed.
	Failure *ServiceFailure
}

// NotificationKind names the messages the poll side sends to the display side.
type NotificationKind string

const (
	NotificationNewFeed        NotificationKind = "NEW_FEED"
	NotificationServiceFailure NotificationKind = "SERVICE_FAILURE"
)

// Notification is the result of one poll. Each one supersedes the previous
// state wholesale.
type Notification struct {
	Kind    NotificationKind
	Feed    []FeedItem
	Failure *ServiceFailure
}

// Presenter is the presentation collaborator: it receives every display tick
// and every poll outcome.
type Presenter interface {
	Present(ctx context.Context, d Display) error
	Notify(ctx context.Context, n Notification) error
}
