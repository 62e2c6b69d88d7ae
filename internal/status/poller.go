package status

import (
	"context"
	"log/slog"
	"time"
)

// Poller refreshes a Tracker from a Fetcher: once immediately, then every
// interval until its context is cancelled. Failures are logged and the last
// known status is kept.
type Poller struct {
	fetcher  Fetcher
	tracker  *Tracker
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewPoller(fetcher Fetcher, tracker *Tracker, interval time.Duration, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		fetcher:  fetcher,
		tracker:  tracker,
		interval: interval,
		log:      log.With(slog.String("component", "status_poller")),
		now:      time.Now,
	}
}

func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s, err := p.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.WarnContext(ctx, "failed to fetch server status", slog.Any("err", err))
		}
		return
	}
	p.tracker.Set(s, p.now())
}
