package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/octobees/leads-extractor/internal/browser"
	"github.com/octobees/leads-extractor/internal/wait"
)

// HeadingMatches reports whether the detail heading shows the expected name.
// Containment either way tolerates truncated headings and names.
func HeadingMatches(observed, expected string) bool {
	o, e := normalizeText(observed), normalizeText(expected)
	if o == "" || e == "" {
		return false
	}
	return o == e || strings.Contains(o, e) || strings.Contains(e, o)
}

func detailHeading(ctx context.Context, page browser.Page) string {
	for _, sel := range detailHeadingSelectors {
		el, err := page.Query(ctx, sel)
		if err != nil {
			continue
		}
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

// focusCard selects card and waits for the detail panel to show name. If the
// first wait times out the card is selected once more. The returned flag is
// false when the panel never matched; extraction continues regardless.
func (s *session) focusCard(ctx context.Context, card browser.Element, name string) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if err := card.Click(ctx); err != nil {
			return false, fmt.Errorf("select card: %w", err)
		}
		matched, err := s.waitForHeading(ctx, name)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (s *session) waitForHeading(ctx context.Context, name string) (bool, error) {
	opts := s.engine.opts
	attempts := wait.Attempts(opts.DetailTimeout, opts.DetailPollInterval)
	return wait.Poll(ctx, s.engine.sleep, opts.DetailPollInterval, attempts, func(ctx context.Context) bool {
		return HeadingMatches(detailHeading(ctx, s.page), name)
	})
}
