package scraper

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEngine_Run_ScrollConvergence(t *testing.T) {
	tests := map[string]struct {
		hasFeed     bool
		growth      []int
		cards       int
		wantScrolls int
	}{
		"feed grows three times": {hasFeed: true, growth: []int{3, 6, 9}, cards: 9, wantScrolls: 3 + 6},
		"viewport fallback":      {hasFeed: false, growth: []int{4, 8}, cards: 8, wantScrolls: 2 + 6},
		"list never grows":       {hasFeed: true, growth: []int{5}, cards: 5, wantScrolls: 1 + 6},
		"empty list":             {hasFeed: true, growth: []int{0}, cards: 0, wantScrolls: 6},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var cards []*fakeCard
			for i := 0; i < tc.cards; i++ {
				cards = append(cards, listing(string(rune('a'+i)), "Toko "+string(rune('A'+i)), "Jl. Raya", ""))
			}
			page := newFakePage(cards...)
			page.hasFeed = tc.hasFeed
			page.growth = tc.growth
			engine, rec := newTestEngine(page)

			var scrollEvents []Event
			res, err := engine.Run(context.Background(), "toko", "Medan", RunOptions{
				OnProgress: func(ev Event) {
					if ev.Stage == StageScroll {
						scrollEvents = append(scrollEvents, ev)
					}
				},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.scrolls != tc.wantScrolls {
				t.Fatalf("expected %d scrolls, got %d", tc.wantScrolls, page.scrolls)
			}
			if got := rec.count(engine.opts.ScrollDelay); got != tc.wantScrolls {
				t.Fatalf("expected %d scroll delays, got %d", tc.wantScrolls, got)
			}
			if len(scrollEvents) != tc.wantScrolls {
				t.Fatalf("expected %d scroll events, got %d", tc.wantScrolls, len(scrollEvents))
			}

			idle := 0
			for i := len(scrollEvents) - 1; i > 0; i-- {
				if *scrollEvents[i].Count != *scrollEvents[i-1].Count {
					break
				}
				idle++
			}
			if tc.cards > 0 && idle != engine.opts.MaxIdleAttempts+1 {
				t.Fatalf("expected %d repeated counts after the last growth, got %d", engine.opts.MaxIdleAttempts+1, idle)
			}
			if res.Meta.TotalCards != tc.cards {
				t.Fatalf("expected %d total cards, got %d", tc.cards, res.Meta.TotalCards)
			}
		})
	}
}

func TestEngine_Run_ScrollStopsOnCancel(t *testing.T) {
	page := newFakePage(listing("a", "Toko", "Jl. Raya", ""))
	engine, _ := newTestEngine(page)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	engine.sleep = func(ctx context.Context, d time.Duration) error {
		calls++
		if d == engine.opts.ScrollDelay && calls > 3 {
			cancel()
		}
		return ctx.Err()
	}

	res, err := engine.Run(ctx, "toko", "Medan", RunOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if res.State != StateAborted {
		t.Fatalf("expected aborted, got %s", res.State)
	}
	if page.closed != 1 {
		t.Fatalf("expected page closed, got %d", page.closed)
	}
}
