package scraper

import (
	"context"
	"regexp"
	"strings"

	"github.com/octobees/leads-extractor/internal/browser"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 13
)

var (
	phoneShape      = regexp.MustCompile(`(?:Phone:?\s*)?((\+?\d{1,3}|0)?\s?\d{3,5}[-.\s]?\d{3,5}[-.\s]?\d{0,5})`)
	parenthesizedNo = regexp.MustCompile(`^\(\d+\)$`)
	reviewMarkers   = []string{"Review", "Ocjena"}
)

// plausiblePhone reports whether raw carries a phone-length run of digits.
func plausiblePhone(raw string) bool {
	n := len(digitsOnly(raw))
	return n >= minPhoneDigits && n <= maxPhoneDigits
}

// ExtractPhone reads the phone number of the focused listing. Structured
// controls win; the detail panel's text is scanned only when none qualifies.
func ExtractPhone(ctx context.Context, page browser.Page) string {
	for _, sel := range phoneSelectors {
		el, err := page.Query(ctx, sel)
		if err != nil {
			continue
		}
		val := phoneControlValue(ctx, el)
		if plausiblePhone(val) {
			return strings.TrimSpace(val)
		}
	}

	panel, err := page.Query(ctx, DetailPanelSelector)
	if err != nil {
		return ""
	}
	text, err := panel.Text(ctx)
	if err != nil {
		return ""
	}
	return ExtractPhoneFromText(text)
}

func phoneControlValue(ctx context.Context, el browser.Element) string {
	if tag, err := el.Property(ctx, "tagName"); err == nil && strings.EqualFold(tag, "A") {
		if href, err := el.Property(ctx, "href"); err == nil && href != "" {
			return strings.Replace(href, "tel:", "", 1)
		}
	}
	if label, err := el.Attribute(ctx, "aria-label"); err == nil && label != "" {
		return label
	}
	text, _ := el.Text(ctx)
	return text
}

// ExtractPhoneFromText returns the first line of free text that looks like a
// phone number, or "" if none does.
func ExtractPhoneFromText(text string) string {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if len(line) < 6 || containsAny(line, reviewMarkers) {
			continue
		}
		if !plausiblePhone(line) || !phoneShape.MatchString(line) {
			continue
		}
		if containsAny(line, []string{"AM", "PM", ","}) || strings.Contains(strings.ToLower(line), "hours") {
			continue
		}
		// a colon is only allowed after a leading "Phone" label; anything else is opening hours
		if strings.Contains(line, ":") && !strings.HasPrefix(strings.ToLower(line), "phone") {
			continue
		}
		if parenthesizedNo.MatchString(line) {
			continue
		}
		if m := phoneShape.FindStringSubmatch(line); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// PhoneTracker blanks numbers that are attributed to too many leads in one
// session, such as a shared reception line.
type PhoneTracker struct {
	counts    map[string]int
	threshold int
}

// NewPhoneTracker builds a tracker. A threshold <= 0 disables suppression.
func NewPhoneTracker(threshold int) *PhoneTracker {
	return &PhoneTracker{counts: make(map[string]int), threshold: threshold}
}

// Assign counts phone and returns it, or "" once its digits reached the threshold.
func (t *PhoneTracker) Assign(phone string) string {
	digits := digitsOnly(phone)
	if digits == "" {
		return phone
	}
	t.counts[digits]++
	if t.threshold > 0 && t.counts[digits] >= t.threshold {
		return ""
	}
	return phone
}

// Count reports how many leads were assigned the given number so far.
func (t *PhoneTracker) Count(phone string) int {
	return t.counts[digitsOnly(phone)]
}
