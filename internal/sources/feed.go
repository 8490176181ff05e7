package sources

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// fetchFeed downloads an RSS/Atom feed through the throttled client and
// parses it.
func fetchFeed(ctx context.Context, client *Client, feedURL string) (*gofeed.Feed, error) {
	body, err := client.Get(ctx, feedURL, nil, nil)
	if err != nil {
		return nil, err
	}
	feed, err := parseAtom(body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}
	return feed, nil
}

func parseAtom(body []byte) (*gofeed.Feed, error) {
	return gofeed.NewParser().Parse(bytes.NewReader(body))
}

// itemTime returns the best available timestamp for a feed item.
func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed
	}
	return nil
}
