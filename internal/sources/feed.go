package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/MrSnakeDoc/jobwatch/internal/utils"
	"github.com/mmcdole/gofeed"
)

// Feed reads an RSS or Atom job feed.
type Feed struct {
	cfg     domain.SourceConfig
	fetcher *Fetcher
	log     logger.Logger
}

func NewFeed(cfg domain.SourceConfig, fetcher *Fetcher, log logger.Logger) *Feed {
	return &Feed{cfg: cfg, fetcher: fetcher, log: log}
}

func (f *Feed) Fetch(ctx context.Context, stopAt string) (domain.Batch, error) {
	body, _, err := f.fetcher.Get(ctx, f.cfg.URL)
	if err != nil {
		return domain.Batch{}, err
	}
	defer utils.Close(body)

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("parse feed: %w", err)
	}

	s := newScan(stopAt)
	for _, item := range parsed.Items {
		p, ok := f.posting(parsed, item)
		if !ok {
			s.skip()
			continue
		}
		if !s.offer(p) {
			break
		}
	}

	b := s.result()
	f.log.Debug("feed scanned",
		logger.String("source", f.cfg.Name()),
		logger.Int("items", len(parsed.Items)),
		logger.Int("kept", len(b.Postings)),
		logger.Bool("stopped_early", b.StoppedEarly))
	return b, nil
}

func (f *Feed) posting(feed *gofeed.Feed, item *gofeed.Item) (domain.Posting, bool) {
	if item == nil {
		return domain.Posting{}, false
	}

	link := itemLink(item)
	company, title := splitCompanyTitle(strings.TrimSpace(item.Title))
	if a := itemAuthor(item); a != "" {
		company, title = a, strings.TrimSpace(item.Title)
	}
	if company == "" {
		company = strings.TrimSpace(feed.Title)
	}
	if title == "" {
		return domain.Posting{}, false
	}

	desc := item.Description
	if desc == "" {
		desc = item.Content
	}

	return domain.Posting{
		Identity:     domain.Identity(link, f.cfg.Name(), company, title),
		Title:        title,
		Company:      company,
		URL:          link,
		Description:  plainText(desc),
		SourceName:   f.cfg.Name(),
		PostedAt:     postedAt(item),
		ThumbnailURL: itemImage(feed, item),
	}, true
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	return ""
}

// splitCompanyTitle handles the common "Company: Job title" item format.
func splitCompanyTitle(s string) (company, title string) {
	if i := strings.Index(s, ": "); i > 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+2:])
	}
	return "", s
}

func postedAt(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(time.RFC3339)
	}
	return item.Published
}

func itemImage(feed *gofeed.Feed, item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, e := range item.Enclosures {
		if e != nil && strings.HasPrefix(e.Type, "image/") {
			return e.URL
		}
	}
	if feed.Image != nil {
		return feed.Image.URL
	}
	return ""
}
