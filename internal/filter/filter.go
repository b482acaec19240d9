// Package filter decides which feed items are relevant to the configured
// counties.
package filter

import (
	"log/slog"
	"slices"

	"github.com/jdholdren/krisinfo/internal/krisinfo"
)

// Filter returns the items relevant to cfg, in their original order.
//
// With no configured areas every item is kept. An item that carries no area
// tags at all is assumed to be of general interest and kept; an item with an
// empty tag list is not.
func Filter(items []krisinfo.FeedItem, cfg krisinfo.FilterConfig) []krisinfo.FeedItem {
	if len(cfg.Areas) == 0 {
		return items
	}

	kept := make([]krisinfo.FeedItem, 0, len(items))
	for _, item := range items {
		if Relevant(item, cfg) {
			kept = append(kept, item)
		}
	}

	return kept
}

// Relevant reports whether a single item passes cfg.
func Relevant(item krisinfo.FeedItem, cfg krisinfo.FilterConfig) bool {
	if len(cfg.Areas) == 0 || item.Areas == nil {
		return true
	}

	for _, area := range item.Areas {
		if area.Type == krisinfo.AreaTypeCounty && slices.Contains(cfg.Areas, area.Description) {
			return true
		}
		if cfg.AlwaysIncludeNational &&
			area.Type == krisinfo.AreaTypeCountry &&
			area.Description == krisinfo.NationalArea {
			return true
		}
	}

	return false
}

// Dated returns a copy of items without those lacking a publish time. Such
// items can't be aged, so they are never shown or listed.
func Dated(items []krisinfo.FeedItem) []krisinfo.FeedItem {
	dated := make([]krisinfo.FeedItem, 0, len(items))
	for _, item := range items {
		if item.Published.IsZero() {
			slog.Debug("dropping item without publish time", "identifier", item.Identifier)
			continue
		}
		dated = append(dated, item)
	}

	return dated
}
