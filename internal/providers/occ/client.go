// Package occ reads the Options Clearing Corporation information memo feed.
// A memo naming a symbol usually means its contracts are being adjusted.
package occ

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/models"
	"github.com/jwaldner/divvyarb/internal/providers"
)

// DefaultFeedURL is the public OCC infomemo RSS feed.
const DefaultFeedURL = "https://infomemo.theocc.com/infomemo-rss"

type Client struct {
	feedURL   string
	requester *providers.Requester
}

// NewClient creates a feed reader. An empty feedURL uses DefaultFeedURL.
func NewClient(feedURL string, timeout time.Duration, maxRetries int) *Client {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &Client{
		feedURL: feedURL,
		requester: providers.NewRequester(providers.RequesterConfig{
			Name:       "occ",
			Timeout:    timeout,
			MaxRetries: maxRetries,
			Headers:    map[string]string{"Accept": "application/rss+xml, application/xml, text/xml"},
		}),
	}
}

func (c *Client) GetProviderName() string                         { return "occ" }
func (c *Client) GetPerformanceStats() providers.PerformanceMetrics { return c.requester.Stats() }
func (c *Client) Close() error                                     { return nil }

type rss struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Memos returns the description of every item currently in the feed.
func (c *Client) Memos(ctx context.Context) ([]models.OccMemo, error) {
	resp, err := c.requester.Get(ctx, c.feedURL, nil)
	if err != nil {
		return nil, err
	}

	var feed rss
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("occ: parsing feed: %w", err)
	}

	memos := make([]models.OccMemo, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}
		memos = append(memos, models.OccMemo{Description: desc})
	}

	logger.Info.Printf("occ: %d memos in feed", len(memos))
	return memos, nil
}
