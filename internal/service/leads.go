package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/entity"
	"github.com/octobees/leads-extractor/internal/repository"
	"github.com/octobees/leads-extractor/internal/scraper"
)

// defaultStoreTimeout bounds storing and delivering a finished run.
const defaultStoreTimeout = 30 * time.Second

// Extractor runs one extraction session.
type Extractor interface {
	Run(ctx context.Context, keyword, location string, ro scraper.RunOptions) (*scraper.Result, error)
}

// SearchInput describes one search request.
type SearchInput struct {
	Keyword  string
	Location string
	SkipIDs  []string
	// Resume adds the card ids already stored for this keyword and location to SkipIDs.
	Resume     bool
	OnProgress scraper.Sink
	RequestID  string
}

// SearchOutput is the result of a search, including aborted ones.
type SearchOutput struct {
	RunID  uuid.UUID
	Result *scraper.Result
	Stored repository.UpsertResult
}

// LeadsService runs extraction sessions and manages the stored leads.
type LeadsService struct {
	extractor  Extractor
	repo       repository.LeadsRepository
	notifier   Notifier
	normalizer *LeadNormalizer
	timeout    time.Duration
	storeTTL   time.Duration
	log        *zap.Logger
}

// LeadsServiceOption configures optional dependencies.
type LeadsServiceOption func(*LeadsService)

// WithRepository enables persistence of extracted leads.
func WithRepository(repo repository.LeadsRepository) LeadsServiceOption {
	return func(s *LeadsService) { s.repo = repo }
}

// WithNotifier forwards every run report to n.
func WithNotifier(n Notifier) LeadsServiceOption {
	return func(s *LeadsService) { s.notifier = n }
}

// WithSessionTimeout bounds every session. Zero disables the bound.
func WithSessionTimeout(d time.Duration) LeadsServiceOption {
	return func(s *LeadsService) { s.timeout = d }
}

// WithStoreTimeout bounds storage and webhook delivery after a session.
func WithStoreTimeout(d time.Duration) LeadsServiceOption {
	return func(s *LeadsService) {
		if d > 0 {
			s.storeTTL = d
		}
	}
}

// WithLogger overrides the global zap logger.
func WithLogger(log *zap.Logger) LeadsServiceOption {
	return func(s *LeadsService) {
		if log != nil {
			s.log = log
		}
	}
}

// NewLeadsService creates a new instance of LeadsService.
func NewLeadsService(extractor Extractor, normalizer *LeadNormalizer, opts ...LeadsServiceOption) *LeadsService {
	if normalizer == nil {
		normalizer = NewLeadNormalizer(defaultPhoneRegion)
	}
	s := &LeadsService{extractor: extractor, normalizer: normalizer, storeTTL: defaultStoreTimeout, log: zap.L()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PersistenceEnabled reports whether leads are stored.
func (s *LeadsService) PersistenceEnabled() bool {
	return s.repo != nil
}

// Search runs one extraction session. Leads collected before a fault are
// returned together with the error.
func (s *LeadsService) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	in.Keyword = strings.TrimSpace(in.Keyword)
	in.Location = strings.TrimSpace(in.Location)
	if err := ValidateSearch(in.Keyword, in.Location); err != nil {
		return nil, err
	}

	out := &SearchOutput{RunID: uuid.New()}
	log := s.log.With(
		zap.String("run_id", out.RunID.String()),
		zap.String("keyword", in.Keyword),
		zap.String("location", in.Location),
	)

	skip := in.SkipIDs
	if in.Resume && s.repo != nil {
		delivered, err := s.repo.DeliveredCardIDs(ctx, in.Keyword, in.Location)
		if err != nil {
			log.Warn("leads: failed to load delivered ids", zap.Error(err))
		} else {
			skip = append(append([]string{}, skip...), delivered...)
		}
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, runErr := s.extractor.Run(runCtx, in.Keyword, in.Location, scraper.RunOptions{
		OnProgress: in.OnProgress,
		SkipIDs:    skip,
	})
	if res == nil {
		res = &scraper.Result{Leads: []scraper.Lead{}, State: scraper.StateAborted, Err: runErr}
	}
	out.Result = res

	for i := range res.Leads {
		s.normalizer.Apply(&res.Leads[i])
	}

	log.Info("leads: search finished",
		zap.String("state", string(res.State)),
		zap.Int("leads", len(res.Leads)),
		zap.Int("remaining", res.Meta.Remaining),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr),
	)

	// partial results are still worth keeping, so storage and delivery use a
	// context that survives the session deadline but has its own bound
	storeCtx, cancelStore := context.WithTimeout(context.WithoutCancel(ctx), s.storeTTL)
	defer cancelStore()
	if s.repo != nil && len(res.Leads) > 0 {
		stored, err := s.repo.UpsertLeads(storeCtx, s.toEntities(out.RunID, res.Leads))
		if err != nil {
			log.Error("leads: failed to store leads", zap.Error(err))
		} else {
			out.Stored = stored
			log.Info("leads: stored", zap.Int("inserted", stored.Inserted), zap.Int("updated", stored.Updated))
		}
	}

	if s.notifier != nil {
		report := RunReport{
			RunID:    out.RunID.String(),
			Keyword:  in.Keyword,
			Location: in.Location,
			State:    res.State,
			Leads:    res.Leads,
			Meta:     res.Meta,
		}
		if runErr != nil {
			report.Error = runErr.Error()
		}
		if err := s.notifier.Notify(storeCtx, report, in.RequestID); err != nil {
			log.Warn("leads: webhook delivery failed", zap.Error(err))
		}
	}

	return out, runErr
}

// ValidateSearch checks the inputs every search needs.
func ValidateSearch(keyword, location string) error {
	if strings.TrimSpace(keyword) == "" {
		return ValidationError{Message: "category is required"}
	}
	if strings.TrimSpace(location) == "" {
		return ValidationError{Message: "location is required"}
	}
	return nil
}

// ListLeads returns stored leads respecting pagination defaults.
func (s *LeadsService) ListLeads(ctx context.Context, filter dto.ListFilter) ([]entity.Lead, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}

func (s *LeadsService) toEntities(runID uuid.UUID, leads []scraper.Lead) []entity.Lead {
	out := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		e := entity.Lead{
			LeadKey:       LeadKey(l),
			Name:          l.Name,
			Reviews:       parseReviews(l.Reviews),
			Rating:        parseRating(l.Rating),
			Phone:         optional(l.Phone),
			PhoneE164:     optional(l.PhoneE164),
			Address:       optional(l.Address),
			Website:       optional(s.normalizer.CanonicalWebsite(l.Website)),
			WebsiteHost:   optional(s.normalizer.WebsiteHost(l.Website)),
			Keyword:       l.Keyword,
			Location:      l.Location,
			DetailMatched: l.DetailMatched,
			CardID:        optional(l.ID),
			RunID:         &runID,
		}
		out = append(out, e)
	}
	return out
}

// LeadKey is the storage identity of a lead: its card id, or its composite key
// when the card carried no id.
func LeadKey(l scraper.Lead) string {
	if l.ID != "" {
		return l.ID
	}
	return "key:" + scraper.CompositeKey(l.Name, l.Address, l.Phone)
}

func parseRating(raw string) *float64 {
	raw = strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseReviews(raw string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return v
}

func optional(value string) *string {
	if value = strings.TrimSpace(value); value == "" {
		return nil
	}
	return &value
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
