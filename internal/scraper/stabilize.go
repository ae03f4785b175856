package scraper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/browser"
)

// stabilize scrolls the results list until the card count stops growing for
// more than MaxIdleAttempts consecutive iterations. There is no iteration cap;
// only context cancellation ends a list that keeps growing.
func (s *session) stabilize(ctx context.Context) (int, error) {
	opts := s.engine.opts
	previous, idle := 0, 0

	for iteration := 1; ; iteration++ {
		if err := s.scrollResults(ctx); err != nil {
			if ctx.Err() != nil {
				return previous, ctx.Err()
			}
			s.log.Debug("scroll failed", zap.Int("iteration", iteration), zap.Error(err))
		}

		if err := s.engine.sleep(ctx, opts.ScrollDelay); err != nil {
			return previous, err
		}

		count := previous
		cards, err := s.page.QueryAll(ctx, CardSelector)
		switch {
		case err == nil:
			count = len(cards)
		case ctx.Err() != nil:
			return previous, ctx.Err()
		default:
			s.log.Debug("count cards failed", zap.Int("iteration", iteration), zap.Error(err))
		}

		s.log.Debug("scroll progress", zap.Int("iteration", iteration), zap.Int("count", count))
		s.report.Report(Event{
			Stage:   StageScroll,
			Message: fmt.Sprintf("Found %d businesses so far...", count),
			Count:   intp(count),
			Percent: 50,
		})

		if count == previous {
			idle++
			if idle > opts.MaxIdleAttempts {
				return count, nil
			}
			continue
		}
		idle = 0
		previous = count
	}
}

// scrollResults scrolls the feed container, or wheels the viewport when the page has none.
func (s *session) scrollResults(ctx context.Context) error {
	feed, err := s.page.Query(ctx, FeedSelector)
	if err == nil {
		return feed.ScrollToBottom(ctx)
	}
	if !errors.Is(err, browser.ErrNotFound) {
		return err
	}
	return s.page.ScrollViewport(ctx, s.engine.opts.ScrollStep)
}
