package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/octobees/leads-extractor/internal/browser"
)

// cardSummary holds the fields readable from the compact list entry.
type cardSummary struct {
	Name    string
	Rating  string
	Reviews string
}

// readCardSummary reads name, rating and review count. An empty Name means the
// card must be discarded.
func readCardSummary(ctx context.Context, card browser.Element) cardSummary {
	summary := cardSummary{
		Name:    childText(ctx, card, CardNameSelector),
		Rating:  childText(ctx, card, CardRatingSelector),
		Reviews: strings.NewReplacer("(", "", ")", "").Replace(childText(ctx, card, CardReviewSelector)),
	}
	if summary.Reviews == "" {
		summary.Reviews = "0"
	}
	return summary
}

func childText(ctx context.Context, el browser.Element, selector string) string {
	child, err := el.Query(ctx, selector)
	if err != nil {
		return ""
	}
	text, err := child.Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// readAddress prefers the detail panel's address control and falls back to the
// third line of the card's own text.
func readAddress(ctx context.Context, page browser.Page, card browser.Element, timeout time.Duration) string {
	// a missing control is expected for some listings; the fallback below covers it
	_ = page.WaitVisible(ctx, DetailAddressSelector, timeout)

	if el, err := page.Query(ctx, DetailAddressSelector); err == nil {
		value, err := el.Attribute(ctx, "aria-label")
		if err != nil || value == "" {
			value, _ = el.Text(ctx)
		}
		if address := strings.TrimSpace(strings.Replace(value, "Address: ", "", 1)); address != "" {
			return address
		}
	}

	text, err := card.Text(ctx)
	if err != nil {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 2 {
		return strings.TrimSpace(lines[2])
	}
	return ""
}

func readWebsite(ctx context.Context, page browser.Page) string {
	el, err := page.Query(ctx, DetailWebsiteSelector)
	if err != nil {
		return ""
	}
	href, err := el.Property(ctx, "href")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(href)
}
