package feeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/mmcdole/gofeed"
)

const DefaultLimit = 10

// SkipTooShort is the skip reason for items under the input length gate.
const SkipTooShort = "too short"

// Item is a feed entry reduced to plain text.
type Item struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Text  string `json:"-"`
}

// Feed is a fetched RSS or Atom feed.
type Feed struct {
	Title string
	Items []Item
}

// Submitter accepts summarization requests.
type Submitter interface {
	Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error)
}

// Submitted pairs an item with the job created for it.
type Submitted struct {
	ID    domain.JobID `json:"id"`
	Title string       `json:"title"`
	Link  string       `json:"link"`
}

// Skipped is an item that did not become a job.
type Skipped struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// IngestResult reports what happened to every fetched item.
type IngestResult struct {
	Feed      string      `json:"feed"`
	Submitted []Submitted `json:"submitted"`
	Skipped   []Skipped   `json:"skipped"`
}

// Reader fetches feeds and turns their items into summarization jobs.
type Reader struct {
	logger       *slog.Logger
	parser       *gofeed.Parser
	allowPrivate bool
}

func NewReader(logger *slog.Logger, timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &Reader{logger: logger, parser: gofeed.NewParser()}
	r.parser.Client = newHTTPClient(timeout, func() bool { return r.allowPrivate })
	r.parser.UserAgent = "briefing-kernel/1.0"
	return r
}

// AllowPrivateHosts lifts the internal address guard, for feeds served on
// the local network.
func (r *Reader) AllowPrivateHosts() *Reader {
	r.allowPrivate = true
	return r
}

// Fetch downloads and parses the feed at url, keeping at most limit items.
func (r *Reader) Fetch(ctx context.Context, url string, limit int) (Feed, error) {
	if strings.TrimSpace(url) == "" {
		return Feed{}, errors.New("feed url is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if !r.allowPrivate {
		if err := checkURL(url); err != nil {
			return Feed{}, err
		}
	}

	parsed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return Feed{}, fmt.Errorf("fetch feed: %w", err)
	}

	feed := Feed{Title: strings.TrimSpace(parsed.Title)}
	for _, it := range parsed.Items {
		if len(feed.Items) >= limit {
			break
		}
		feed.Items = append(feed.Items, Item{
			Title: strings.TrimSpace(it.Title),
			Link:  it.Link,
			Text:  itemText(it),
		})
	}
	return feed, nil
}

// Ingest fetches the feed and submits one job per item. The feed title
// becomes each job's source.
func (r *Reader) Ingest(ctx context.Context, jobs Submitter, url string, mode string, limit int) (IngestResult, error) {
	feed, err := r.Fetch(ctx, url, limit)
	if err != nil {
		return IngestResult{}, err
	}
	res, err := r.submit(ctx, jobs, url, feed, mode, nil)
	if err != nil {
		return res, err
	}
	r.logger.Info("feed ingested", "feed", res.Feed, "submitted", len(res.Submitted), "skipped", len(res.Skipped))
	return res, nil
}

// submit turns feed items into jobs. Items for which skip reports true are
// left out of the result entirely. An invalid mode aborts the run.
func (r *Reader) submit(ctx context.Context, jobs Submitter, url string, feed Feed, mode string, skip func(Item) bool) (IngestResult, error) {
	source := feed.Title
	if source == "" {
		source = url
	}

	res := IngestResult{Feed: source, Submitted: []Submitted{}, Skipped: []Skipped{}}
	for _, item := range feed.Items {
		if skip != nil && skip(item) {
			continue
		}
		sub, err := jobs.Submit(ctx, domain.SubmitRequest{
			Text:   item.Text,
			Mode:   mode,
			Title:  item.Title,
			Source: source,
		})
		switch {
		case err != nil:
			if errors.Is(err, domain.ErrInvalidMode) {
				return res, err
			}
			res.Skipped = append(res.Skipped, Skipped{Title: item.Title, Link: item.Link, Reason: err.Error()})
		case sub.TooShort:
			res.Skipped = append(res.Skipped, Skipped{Title: item.Title, Link: item.Link, Reason: SkipTooShort})
		default:
			res.Submitted = append(res.Submitted, Submitted{ID: sub.ID, Title: item.Title, Link: item.Link})
		}
	}
	return res, nil
}

// itemText picks the richer of content and description and strips markup.
func itemText(it *gofeed.Item) string {
	body := it.Description
	if len(it.Content) > len(body) {
		body = it.Content
	}
	return StripHTML(body)
}

// StripHTML returns the visible text of an HTML fragment with one paragraph
// per block element.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var paras []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			paras = append(paras, line)
		}
	}
	return strings.Join(paras, "\n")
}
