package feeds

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/schedule"
)

// maxSeen bounds the memory of already ingested links.
const maxSeen = 5000

type subscription struct {
	domain.FeedSubscription
	sched schedule.Schedule
	next  time.Time
}

// Poller ingests subscribed feeds on their cron schedules. Links that already
// became a job, or were too short to, are not submitted again.
type Poller struct {
	logger *slog.Logger
	reader *Reader
	jobs   Submitter
	tick   time.Duration
	now    func() time.Time

	mu   sync.Mutex
	subs []*subscription

	seenMu    sync.Mutex
	seen      map[string]struct{}
	seenOrder []string
}

func NewPoller(logger *slog.Logger, reader *Reader, jobs Submitter, subs []domain.FeedSubscription) *Poller {
	p := &Poller{
		logger: logger,
		reader: reader,
		jobs:   jobs,
		tick:   time.Minute,
		now:    time.Now,
		seen:   make(map[string]struct{}),
	}
	p.SetSubscriptions(subs)
	return p
}

// SetSubscriptions replaces the subscription list. Entries with a bad
// schedule are logged and ignored.
func (p *Poller) SetSubscriptions(subs []domain.FeedSubscription) {
	now := p.now()
	next := make([]*subscription, 0, len(subs))
	for _, s := range subs {
		sched, err := schedule.Parse(s.Schedule)
		if err != nil {
			p.logger.Warn("ignoring feed subscription", "url", s.URL, "error", err)
			continue
		}
		at, ok := sched.Next(now)
		if !ok {
			p.logger.Warn("feed schedule never fires", "url", s.URL, "schedule", s.Schedule)
			continue
		}
		next = append(next, &subscription{FeedSubscription: s, sched: sched, next: at})
	}

	p.mu.Lock()
	p.subs = next
	p.mu.Unlock()
	p.logger.Info("feed subscriptions loaded", "count", len(next))
}

// Run checks for due subscriptions every tick. Blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("feed poller stopped")
			return nil
		case <-ticker.C:
			p.pollDue(ctx)
		}
	}
}

func (p *Poller) pollDue(ctx context.Context) {
	now := p.now()

	var due []domain.FeedSubscription
	p.mu.Lock()
	for _, s := range p.subs {
		if s.next.After(now) {
			continue
		}
		due = append(due, s.FeedSubscription)
		if at, ok := s.sched.Next(now); ok {
			s.next = at
		} else {
			s.next = now.Add(24 * 365 * time.Hour)
		}
	}
	p.mu.Unlock()

	for _, s := range due {
		if _, err := p.Poll(ctx, s); err != nil {
			p.logger.Error("scheduled feed ingest failed", "url", s.URL, "error", err)
		}
	}
}

// Poll ingests one subscription now, skipping links seen by earlier polls.
func (p *Poller) Poll(ctx context.Context, s domain.FeedSubscription) (IngestResult, error) {
	feed, err := p.reader.Fetch(ctx, s.URL, s.Limit)
	if err != nil {
		return IngestResult{}, err
	}

	res, err := p.reader.submit(ctx, p.jobs, s.URL, feed, s.Mode, func(it Item) bool {
		return it.Link != "" && p.hasSeen(it.Link)
	})
	for _, sub := range res.Submitted {
		p.markSeen(sub.Link)
	}
	for _, sk := range res.Skipped {
		if sk.Reason == SkipTooShort {
			p.markSeen(sk.Link)
		}
	}
	if err != nil {
		return res, err
	}

	p.logger.Info("scheduled feed ingested", "feed", res.Feed, "submitted", len(res.Submitted), "skipped", len(res.Skipped))
	return res, nil
}

func (p *Poller) hasSeen(link string) bool {
	p.seenMu.Lock()
	defer p.seenMu.Unlock()
	_, ok := p.seen[link]
	return ok
}

func (p *Poller) markSeen(link string) {
	if link == "" {
		return
	}
	p.seenMu.Lock()
	defer p.seenMu.Unlock()
	if _, ok := p.seen[link]; ok {
		return
	}
	p.seen[link] = struct{}{}
	p.seenOrder = append(p.seenOrder, link)
	if len(p.seenOrder) > maxSeen {
		delete(p.seen, p.seenOrder[0])
		p.seenOrder = p.seenOrder[1:]
	}
}
