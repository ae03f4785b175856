package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/octobees/leads-extractor/internal/browser"
)

// CardID derives a stable identifier for a result card. It returns "" when the
// card carries no identity signal at all.
func CardID(ctx context.Context, card browser.Element) string {
	for _, attr := range cardIDAttributes {
		val, err := card.Attribute(ctx, attr)
		if err == nil && val != "" {
			return attr + ":" + val
		}
	}

	for _, sel := range cardLinkSelectors {
		link, err := card.Query(ctx, sel)
		if err != nil {
			continue
		}
		href, err := link.Property(ctx, "href")
		if err != nil || href == "" {
			continue
		}
		return NormalizeHrefID(href)
	}
	return ""
}

// NormalizeHrefID prefers the cid or place_id query parameter of a place link
// and falls back to the raw URL.
func NormalizeHrefID(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if u, err := url.Parse(href); err == nil {
		q := u.Query()
		if cid := q.Get("cid"); cid != "" {
			return "cid:" + cid
		}
		if placeID := q.Get("place_id"); placeID != "" {
			return "place:" + placeID
		}
	}
	return "href:" + href
}
