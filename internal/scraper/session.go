// Package scraper extracts business listings from the maps results list. One
// session scrolls the list to convergence, then walks every card, focuses its
// detail panel and reads its fields, deduplicating by card id and by a
// composite name/address/phone key.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/browser"
	"github.com/octobees/leads-extractor/internal/wait"
)

// Options tunes the timings and business rules of a session.
type Options struct {
	SearchURL              string
	NavigationSettle       time.Duration
	ScrollStep             int
	ScrollDelay            time.Duration
	MaxIdleAttempts        int
	DetailPollInterval     time.Duration
	DetailTimeout          time.Duration
	AddressTimeout         time.Duration
	PhoneRetryDelay        time.Duration
	PhoneSuppressThreshold int
}

// DefaultOptions mirrors the timings the target site is known to tolerate.
func DefaultOptions() Options {
	return Options{
		SearchURL:              "https://www.google.com/maps/search/",
		NavigationSettle:       3 * time.Second,
		ScrollStep:             5000,
		ScrollDelay:            2 * time.Second,
		MaxIdleAttempts:        5,
		DetailPollInterval:     300 * time.Millisecond,
		DetailTimeout:          3500 * time.Millisecond,
		AddressTimeout:         2500 * time.Millisecond,
		PhoneRetryDelay:        800 * time.Millisecond,
		PhoneSuppressThreshold: 5,
	}
}

// BuildSearchURL builds the maps search URL for keyword in location.
func (o Options) BuildSearchURL(keyword, location string) string {
	base := o.SearchURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(fmt.Sprintf("%s in %s", keyword, location))
}

// RunOptions carries the per-call inputs of a session.
type RunOptions struct {
	OnProgress Sink
	// SkipIDs are ids delivered by an earlier call; matching cards are counted
	// as skipped and not extracted again.
	SkipIDs []string
}

// Engine runs extraction sessions on pages from a browser.Provider.
type Engine struct {
	pages browser.Provider
	opts  Options
	log   *zap.Logger
	sleep wait.Sleeper
}

// NewEngine builds an engine. A nil logger discards logs.
func NewEngine(pages browser.Provider, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{pages: pages, opts: opts, log: log, sleep: wait.Sleep}
}

// Run executes one session. It always returns a Result; on a fatal fault the
// Result holds the leads collected so far, State is StateAborted and the error
// is returned as well.
func (e *Engine) Run(ctx context.Context, keyword, location string, ro RunOptions) (*Result, error) {
	s := &session{
		engine:   e,
		keyword:  keyword,
		location: location,
		state:    NewState(ro.SkipIDs, e.opts.PhoneSuppressThreshold),
		report:   NewReporter(ro.OnProgress, e.log),
		log:      e.log.With(zap.String("keyword", keyword), zap.String("location", location)),
		result:   &Result{Leads: []Lead{}, State: StateInit},
	}
	err := s.run(ctx)
	return s.finish(err)
}

// session is the state of one Run call. It is never shared between goroutines.
type session struct {
	engine   *Engine
	keyword  string
	location string
	page     browser.Page
	state    *State
	report   *Reporter
	log      *zap.Logger
	result   *Result
}

func (s *session) run(ctx context.Context) error {
	s.report.Report(Event{
		Stage:   StageInit,
		Message: fmt.Sprintf("Starting search for %s in %s", s.keyword, s.location),
		Percent: 5,
	})
	s.log.Info("starting search")

	page, err := s.engine.pages.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrowserUnavailable, err)
	}
	defer page.Close()
	s.page = page
	s.result.State = StateBrowserReady
	s.report.Report(Event{Stage: StageBrowser, Message: "Browser launched", Percent: 15})

	target := s.engine.opts.BuildSearchURL(s.keyword, s.location)
	if err := page.Navigate(ctx, target); err != nil {
		return fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	if err := s.engine.sleep(ctx, s.engine.opts.NavigationSettle); err != nil {
		return err
	}
	s.result.State = StateNavigated
	s.report.Report(Event{Stage: StageNavigate, Message: "Opened Google Maps", Percent: 30})

	s.result.State = StateScrolling
	count, err := s.stabilize(ctx)
	if err != nil {
		return fmt.Errorf("scroll results: %w", err)
	}
	s.log.Info("reached end of list", zap.Int("count", count))

	s.result.State = StateExtracting
	return s.extract(ctx)
}

func (s *session) extract(ctx context.Context) error {
	s.report.Report(Event{Stage: StageExtract, Message: "Starting detailed extraction...", Percent: 70})

	cards, err := s.page.QueryAll(ctx, CardSelector)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListUnavailable, err)
	}
	total := len(cards)
	s.state.Metrics.TotalCards = total
	s.report.Report(Event{
		Stage:   StageExtract,
		Message: fmt.Sprintf("Processing %d businesses...", total),
		Total:   intp(total),
		Percent: 75,
	})

	// Ids are captured before any card is clicked so that a reordering of the
	// list during extraction can be detected and corrected.
	expected := make([]string, total)
	for i, card := range cards {
		expected[i] = CardID(ctx, card)
	}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lead, err := s.processEntry(ctx, i, expected[i])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("error processing card", zap.Int("index", i), zap.Error(err))
			continue
		}
		if lead == nil {
			continue
		}
		s.result.Leads = append(s.result.Leads, *lead)
		s.log.Info("extracted lead", zap.String("lead", lead.Name), zap.String("phone", lead.Phone), zap.Bool("detail_matched", lead.DetailMatched))
		s.report.Report(Event{
			Stage:   StageExtract,
			Message: "Extracted " + lead.Name,
			Current: intp(i + 1),
			Total:   intp(total),
		})
	}
	return nil
}

// processEntry handles the i-th card. A nil lead with a nil error means the card
// was skipped, discarded or collapsed into an earlier lead.
func (s *session) processEntry(ctx context.Context, i int, expectedID string) (*Lead, error) {
	card, err := s.cardAt(ctx, i, expectedID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		s.log.Warn("card moved out of the list", zap.Int("index", i), zap.String("card_id", expectedID))
		return nil, nil
	}

	id := expectedID
	if id == "" {
		id = CardID(ctx, card)
	}
	if s.state.IsDuplicate(id) {
		s.state.Metrics.SkippedCount++
		return nil, nil
	}
	s.state.MarkSeen(id)

	if err := card.ScrollIntoView(ctx); err != nil {
		return nil, fmt.Errorf("scroll card into view: %w", err)
	}

	summary := readCardSummary(ctx, card)
	if summary.Name == "" {
		return nil, nil
	}
	s.state.Metrics.ProcessedCount++

	matched, err := s.focusCard(ctx, card, summary.Name)
	if err != nil {
		return nil, err
	}
	if !matched {
		s.log.Warn("detail panel did not match card", zap.Int("index", i), zap.String("lead", summary.Name))
	}

	opts := s.engine.opts
	address := readAddress(ctx, s.page, card, opts.AddressTimeout)
	phone := ExtractPhone(ctx, s.page)
	if phone == "" {
		if err := s.engine.sleep(ctx, opts.PhoneRetryDelay); err != nil {
			return nil, err
		}
		phone = ExtractPhone(ctx, s.page)
	}
	website := readWebsite(ctx, s.page)

	if !s.state.ClaimKey(CompositeKey(summary.Name, address, phone)) {
		s.log.Info("skipped duplicate", zap.String("lead", summary.Name), zap.String("phone", phone))
		return nil, nil
	}

	return &Lead{
		ID:            id,
		Name:          summary.Name,
		Rating:        summary.Rating,
		Reviews:       summary.Reviews,
		Phone:         s.state.AssignPhone(phone),
		Address:       address,
		Website:       website,
		Keyword:       s.keyword,
		Location:      s.location,
		DetailMatched: matched,
	}, nil
}

// cardAt re-fetches the i-th card and checks it is still the card whose id was
// captured up front. When the list has shifted, the card is looked up by id.
// It returns nil when the card can no longer be found.
func (s *session) cardAt(ctx context.Context, i int, expectedID string) (browser.Element, error) {
	cards, err := s.page.QueryAll(ctx, CardSelector)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	if i < len(cards) && (expectedID == "" || CardID(ctx, cards[i]) == expectedID) {
		return cards[i], nil
	}
	if expectedID == "" {
		return nil, nil
	}
	for _, card := range cards {
		if CardID(ctx, card) == expectedID {
			return card, nil
		}
	}
	return nil, nil
}

func (s *session) finish(err error) (*Result, error) {
	s.result.Meta = s.state.Metrics.Meta()
	s.report.Report(Event{
		Stage:   StageFinal,
		Message: fmt.Sprintf("Completed. %d leads collected.", len(s.result.Leads)),
		Total:   intp(len(s.result.Leads)),
		Percent: 100,
	})

	if err != nil {
		s.result.State = StateAborted
		s.result.Err = err
		if errors.Is(err, context.Canceled) {
			s.log.Info("search cancelled", zap.Int("leads", len(s.result.Leads)))
		} else {
			s.log.Error("search aborted", zap.Int("leads", len(s.result.Leads)), zap.Error(err))
		}
		return s.result, err
	}

	s.result.State = StateDone
	s.log.Info("search completed", zap.Int("leads", len(s.result.Leads)), zap.Int("remaining", s.result.Meta.Remaining))
	return s.result, nil
}
