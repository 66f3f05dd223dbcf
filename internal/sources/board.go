package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/MrSnakeDoc/jobwatch/internal/utils"
	"github.com/PuerkitoBio/goquery"
)

const (
	defaultPageParam = "start"
	defaultPageSize  = 25
	defaultMaxPages  = 10
)

// thumbnail attributes, in the order they are tried; lazy-loading sites
// keep the real URL out of src.
var imageAttrs = []string{"data-delayed-url", "data-src", "src"}

// Board scrapes a paginated HTML listing using CSS selectors.
type Board struct {
	cfg     domain.SourceConfig
	fetcher *Fetcher
	log     logger.Logger
}

func NewBoard(cfg domain.SourceConfig, fetcher *Fetcher, log logger.Logger) (*Board, error) {
	if cfg.Selectors.Card == "" || cfg.Selectors.Title == "" {
		return nil, fmt.Errorf("board source %s: card and title selectors are required", cfg.Name())
	}
	if cfg.Pagination.Param == "" {
		cfg.Pagination.Param = defaultPageParam
	}
	if cfg.Pagination.PageSize <= 0 {
		cfg.Pagination.PageSize = defaultPageSize
	}
	if cfg.Pagination.MaxPages <= 0 {
		cfg.Pagination.MaxPages = defaultMaxPages
	}
	return &Board{cfg: cfg, fetcher: fetcher, log: log}, nil
}

// Fetch walks pages until the stop marker, a short page, or MaxPages.
// A failure on any page fails the whole fetch so the marker is not
// advanced past postings that were never read.
func (b *Board) Fetch(ctx context.Context, stopAt string) (domain.Batch, error) {
	s := newScan(stopAt)
	pg := b.cfg.Pagination

	for page := 0; page < pg.MaxPages; page++ {
		pageURL, err := b.pageURL(page)
		if err != nil {
			return domain.Batch{}, err
		}

		cards, base, err := b.load(ctx, pageURL)
		if err != nil {
			return domain.Batch{}, fmt.Errorf("page %d: %w", page+1, err)
		}
		if cards.Length() == 0 {
			break
		}

		stopped := false
		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			p, ok := b.posting(card, base)
			if !ok {
				s.skip()
				return true
			}
			if !s.offer(p) {
				stopped = true
				return false
			}
			return true
		})

		b.log.Debug("board page scanned",
			logger.String("source", b.cfg.Name()),
			logger.Int("page", page+1),
			logger.Int("cards", cards.Length()))

		if stopped || cards.Length() < pg.PageSize {
			break
		}
	}

	return s.result(), nil
}

func (b *Board) load(ctx context.Context, pageURL string) (*goquery.Selection, *url.URL, error) {
	body, final, err := b.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}
	defer utils.Close(body)

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(final)
	if err != nil {
		base, _ = url.Parse(pageURL)
	}
	return doc.Find(b.cfg.Selectors.Card), base, nil
}

func (b *Board) pageURL(page int) (string, error) {
	u, err := url.Parse(b.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid source url %q: %w", b.cfg.URL, err)
	}
	if page == 0 {
		return u.String(), nil
	}
	q := u.Query()
	q.Set(b.cfg.Pagination.Param, strconv.Itoa(page*b.cfg.Pagination.PageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (b *Board) posting(card *goquery.Selection, base *url.URL) (domain.Posting, bool) {
	sel := b.cfg.Selectors

	title := textOf(card, sel.Title)
	if title == "" {
		return domain.Posting{}, false
	}
	company := textOf(card, sel.Company)

	link := ""
	if sel.Link != "" {
		if href, ok := card.Find(sel.Link).First().Attr("href"); ok {
			link = resolve(base, href)
		}
	} else if href, ok := card.Find("a[href]").First().Attr("href"); ok {
		link = resolve(base, href)
	}

	p := domain.Posting{
		Title:      title,
		Company:    company,
		URL:        link,
		SourceName: b.cfg.Name(),
		PostedAt:   postedText(card, sel.Posted),
	}
	if sel.Description != "" {
		p.Description = collapse(card.Find(sel.Description).Text())
	}
	if sel.Thumbnail != "" {
		p.ThumbnailURL = resolve(base, imageOf(card.Find(sel.Thumbnail).First()))
	}
	p.Identity = domain.Identity(link, p.SourceName, company, title)
	return p, true
}

func textOf(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return collapse(card.Find(selector).First().Text())
}

// postedText prefers a machine-readable datetime attribute when present.
func postedText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	el := card.Find(selector).First()
	if dt, ok := el.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}
	return collapse(el.Text())
}

func imageOf(img *goquery.Selection) string {
	for _, attr := range imageAttrs {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
