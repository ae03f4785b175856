package scraper

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonDigit      = regexp.MustCompile(`\D`)
)

// Metrics counts what happened to the cards of one session.
type Metrics struct {
	TotalCards     int
	ProcessedCount int
	SkippedCount   int
}

// Remaining is the number of surfaced cards neither processed nor skipped.
func (m Metrics) Remaining() int {
	return max(0, m.TotalCards-m.ProcessedCount-m.SkippedCount)
}

// Meta converts the counters to their wire form.
func (m Metrics) Meta() Meta {
	return Meta{
		TotalCards:     m.TotalCards,
		ProcessedCount: m.ProcessedCount,
		SkippedCount:   m.SkippedCount,
		Remaining:      m.Remaining(),
	}
}

// State is the mutable bookkeeping of one session: skip list, seen ids,
// seen composite keys and the shared-phone histogram.
type State struct {
	skip     map[string]struct{}
	seenIDs  map[string]struct{}
	seenKeys map[string]struct{}
	phones   *PhoneTracker
	Metrics  Metrics
}

// NewState builds session state from the caller's skip list. Blank ids are ignored.
func NewState(skipIDs []string, phoneThreshold int) *State {
	skip := make(map[string]struct{}, len(skipIDs))
	for _, id := range skipIDs {
		if id = strings.TrimSpace(id); id != "" {
			skip[id] = struct{}{}
		}
	}
	return &State{
		skip:     skip,
		seenIDs:  make(map[string]struct{}),
		seenKeys: make(map[string]struct{}),
		phones:   NewPhoneTracker(phoneThreshold),
	}
}

// IsDuplicate reports whether a non-empty id was skipped by the caller or already seen.
func (s *State) IsDuplicate(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s.skip[id]; ok {
		return true
	}
	_, ok := s.seenIDs[id]
	return ok
}

// MarkSeen records id for the rest of the session.
func (s *State) MarkSeen(id string) {
	if id != "" {
		s.seenIDs[id] = struct{}{}
	}
}

// ClaimKey records key and reports whether it was new.
func (s *State) ClaimKey(key string) bool {
	if _, ok := s.seenKeys[key]; ok {
		return false
	}
	s.seenKeys[key] = struct{}{}
	return true
}

// AssignPhone applies the shared-number suppression rule.
func (s *State) AssignPhone(phone string) string {
	return s.phones.Assign(phone)
}

// CompositeKey identifies a lead by its normalized name, address and phone digits.
func CompositeKey(name, address, phone string) string {
	return strings.Join([]string{normalizeText(name), normalizeText(address), digitsOnly(phone)}, "|")
}

func normalizeText(value string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(value), " "))
}

func digitsOnly(value string) string {
	return nonDigit.ReplaceAllString(value, "")
}
