package present

import (
	"time"

	displayv1 "github.com/jdholdren/krisinfo/api/display/v1"
	"github.com/jdholdren/krisinfo/internal/krisinfo"
)

func toDisplay(d krisinfo.Display, at time.Time) displayv1.Display {
	out := displayv1.Display{
		Kind:            string(d.Kind),
		FeedCount:       d.FeedCount,
		OldestDays:      d.OldestDays,
		ShowDescription: d.ShowDescription,
		Failure:         toFailure(d.Failure),
		At:              at,
	}
	if d.Item != nil {
		item := toItem(*d.Item)
		if !d.ShowDescription {
			item.Preamble = ""
		}
		out.Item = &item
	}

	return out
}

func toItem(item krisinfo.FeedItem) displayv1.Item {
	out := displayv1.Item{
		Identifier: item.Identifier,
		Headline:   item.Headline,
		Preamble:   item.Preamble,
		BodyText:   item.BodyText,
		Web:        item.Web,
		Published:  item.Published,
		SenderName: item.SenderName,
	}
	for _, a := range item.Areas {
		out.Areas = append(out.Areas, displayv1.Area{Type: a.Type, Description: a.Description})
	}

	return out
}

func toItems(items []krisinfo.FeedItem) []displayv1.Item {
	out := make([]displayv1.Item, 0, len(items))
	for _, item := range items {
		out = append(out, toItem(item))
	}

	return out
}

func toFailure(f *krisinfo.ServiceFailure) *displayv1.Failure {
	if f == nil {
		return nil
	}

	return &displayv1.Failure{StatusCode: f.StatusCode, Message: f.Message}
}

func toNotification(n krisinfo.Notification) displayv1.Notification {
	out := displayv1.Notification{
		Kind:    string(n.Kind),
		Failure: toFailure(n.Failure),
	}
	if n.Kind == krisinfo.NotificationNewFeed {
		out.Items = toItems(n.Feed)
	}

	return out
}
