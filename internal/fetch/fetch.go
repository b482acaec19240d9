// Package fetch retrieves the crisis news feed from Krisinformation.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"

	krerrs "github.com/jdholdren/krisinfo/internal/errors"
	"github.com/jdholdren/krisinfo/internal/krisinfo"
)

const (
	DefaultURL = "https://api.krisinformation.se/v3/news/?includeTest=0&allCounties=True"

	userAgent = "krisinfo/1.0 (+https://github.com/jdholdren/krisinfo)"

	// Upper bound for an upstream error body carried into a failure message.
	maxErrorBody = 2048

	// Upper bound in bytes for any sanitized text field.
	maxTextLen = 2048

	sanitizedCacheSize = 512
)

// Represents one announcement in the upstream response.
type newsResp struct {
	Identifier string `json:"Identifier"`
	Headline   string `json:"Headline"`
	Preamble   string `json:"Preamble"`
	BodyText   string `json:"BodyText"`
	Web        string `json:"Web"`
	Published  string `json:"Published"`
	Updated    string `json:"Updated"`
	SenderName string `json:"SenderName"`
	Area       []struct {
		Type        string `json:"Type"`
		Description string `json:"Description"`
	} `json:"Area"`
}

type Config struct {
	URL     string
	Timeout time.Duration
}

// Fetcher performs one live request per call. It never retries; the next
// poll is the retry.
type Fetcher struct {
	url    string
	client *http.Client

	// Sanitized items keyed by identifier and timestamps, so unchanged
	// announcements skip the HTML policy on later polls.
	sanitized *lru.Cache[string, krisinfo.FeedItem]
}

func NewFetcher(cfg Config) *Fetcher {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, krisinfo.FeedItem](sanitizedCacheSize)

	return &Fetcher{
		url: url,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		sanitized: cache,
	}
}

// Fetch returns every announcement upstream currently lists, in upstream order.
//
// Errors are always a *krerrs.Error: status 600 for transport and decoding
// failures, otherwise the upstream HTTP status.
func (f *Fetcher) Fetch(ctx context.Context) ([]krisinfo.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, krerrs.E(krerrs.StatusTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	slog.DebugContext(ctx, "calling upstream", "url", f.url)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, krerrs.E(krerrs.StatusTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, krerrs.E(resp.StatusCode, msg)
	}

	var news []newsResp
	if err := json.NewDecoder(resp.Body).Decode(&news); err != nil {
		return nil, krerrs.E(krerrs.StatusTransport, fmt.Errorf("error decoding feed: %w", err))
	}

	items := make([]krisinfo.FeedItem, 0, len(news))
	for _, n := range news {
		items = append(items, f.toItem(ctx, n))
	}

	return items, nil
}

func (f *Fetcher) toItem(ctx context.Context, n newsResp) krisinfo.FeedItem {
	key := n.Identifier + "\x00" + n.Published + "\x00" + n.Updated
	if n.Identifier != "" {
		if item, ok := f.sanitized.Get(key); ok {
			return item
		}
	}

	published, err := ParseTime(n.Published)
	if err != nil {
		slog.WarnContext(ctx, "unparseable publish time", "identifier", n.Identifier, "published", n.Published)
	}

	item := krisinfo.FeedItem{
		Identifier: n.Identifier,
		Headline:   sanitize(n.Headline),
		Preamble:   sanitize(n.Preamble),
		BodyText:   sanitize(n.BodyText),
		Web:        strings.TrimSpace(n.Web),
		Published:  published,
		SenderName: sanitize(n.SenderName),
	}
	// Keep nil distinct from empty: untagged items pass every filter.
	if n.Area != nil {
		item.Areas = make([]krisinfo.AreaRef, 0, len(n.Area))
		for _, a := range n.Area {
			item.Areas = append(item.Areas, krisinfo.AreaRef{
				Type:        a.Type,
				Description: strings.TrimSpace(a.Description),
			})
		}
	}

	if n.Identifier != "" {
		f.sanitized.Add(key, item)
	}
	return item
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTime reads the timestamps upstream emits. Values without a zone are
// taken as local time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes all html tags from the string, leaving plain text. The policy
// escapes what it keeps, so entities are decoded again afterwards.
//
// Also limits the length of the string so there's not a massive chunk of text being output.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	if len(s) > maxTextLen {
		n := maxTextLen
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}

	return s
}
