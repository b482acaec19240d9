// Package v1 holds the JSON shapes the display surface consumes.
package v1

import "time"

type (
	// Display is what the surface should render for one tick.
	Display struct {
		// One of loading, item, noCurrentItems or none.
		Kind            string   `json:"kind"`
		Item            *Item    `json:"item,omitempty"`
		FeedCount       int      `json:"feedCount,omitempty"`
		OldestDays      int      `json:"oldestDays,omitempty"`
		ShowDescription bool     `json:"showDescription"`
		Failure         *Failure `json:"failure,omitempty"`

		// When the tick happened.
		At time.Time `json:"at"`
	}

	Item struct {
		Identifier string    `json:"identifier"`
		Headline   string    `json:"headline"`
		Preamble   string    `json:"preamble,omitempty"`
		BodyText   string    `json:"bodyText,omitempty"`
		Web        string    `json:"web,omitempty"`
		Published  time.Time `json:"published"`
		SenderName string    `json:"senderName,omitempty"`
		Areas      []Area    `json:"areas,omitempty"`
	}

	Area struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}

	Failure struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}

	// Feed is the latest filtered feed and its status.
	Feed struct {
		Loaded    bool       `json:"loaded"`
		Count     int        `json:"count"`
		Items     []Item     `json:"items"`
		Failure   *Failure   `json:"failure,omitempty"`
		UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	}

	// Notification mirrors a poll outcome: NEW_FEED or SERVICE_FAILURE.
	Notification struct {
		Kind    string   `json:"kind"`
		Items   []Item   `json:"items,omitempty"`
		Failure *Failure `json:"failure,omitempty"`
	}

	// Event is the envelope pushed to webhooks. Exactly one of Display and
	// Notification is set.
	Event struct {
		Type         string        `json:"type"`
		Display      *Display      `json:"display,omitempty"`
		Notification *Notification `json:"notification,omitempty"`
	}

	// Config is the effective configuration, as the module broadcasts it.
	Config struct {
		AlwaysNational   bool     `json:"alwaysNational"`
		UpdateInterval   int64    `json:"updateInterval"`
		UIUpdateInterval int64    `json:"uiUpdateInterval"`
		Areas            []string `json:"areas"`
		ShowDescription  bool     `json:"showDescription"`
		Oldest           int      `json:"oldest"`
		Silent           bool     `json:"silent"`
		Debug            bool     `json:"debug"`
	}
)

const (
	EventDisplay      = "display"
	EventNotification = "notification"
)
