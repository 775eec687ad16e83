package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/condlookup/internal/access"
	"github.com/dgallion1/condlookup/internal/generate"
	"github.com/dgallion1/condlookup/internal/search"
	"github.com/dgallion1/condlookup/internal/sections"
	"github.com/google/uuid"
)

// MaxDiseaseLength bounds the accepted disease name, in runes.
const MaxDiseaseLength = 200

var (
	ErrInvalidDisease = errors.New("please enter a disease name")
	ErrDiseaseTooLong = fmt.Errorf("disease name must be at most %d characters", MaxDiseaseLength)
	ErrMissingUser    = errors.New("user_id is required")
)

// AccessDeniedError is returned when the feature-access check refuses a lookup.
type AccessDeniedError struct {
	Decision access.Decision
}

func (e *AccessDeniedError) Error() string {
	if e.Decision.Reason != "" {
		return "access denied: " + e.Decision.Reason
	}
	return "access denied"
}

// Request is one lookup request from the condition page.
type Request struct {
	UserID  string `json:"user_id"`
	Disease string `json:"disease"`
}

// Service runs condition lookups: access check, search links, summary,
// details, and section extraction.
type Service struct {
	checker   access.Checker
	generator generate.Generator
	links     *search.Builder
	cache     *Cache
	log       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(checker access.Checker, gen generate.Generator, links *search.Builder, cacheTTL time.Duration, log *slog.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 6 * time.Hour
	}
	return &Service{
		checker:   checker,
		generator: gen,
		links:     links,
		cache:     NewCache(cacheTTL),
		log:       log,
	}
}

// Start launches the cache cleanup loop.
func (s *Service) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.cache.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Get returns a cached lookup by ID, or nil.
func (s *Service) Get(id string) *Result {
	r := s.cache.GetByID(id)
	if r == nil {
		return nil
	}
	return r.clone()
}

// MaxLookupDuration bounds one uncached Lookup: two sequential generation
// calls, each with its full retry budget, plus the access round trips.
func MaxLookupDuration(generateTimeout time.Duration) time.Duration {
	return 2*generate.MaxCallDuration(generateTimeout) + 30*time.Second
}

// ValidateDisease trims the name and checks it is usable.
func ValidateDisease(disease string) (string, error) {
	d := strings.TrimSpace(disease)
	if d == "" {
		return "", ErrInvalidDisease
	}
	if utf8.RuneCountInString(d) > MaxDiseaseLength {
		return "", ErrDiseaseTooLong
	}
	return d, nil
}

// Lookup runs one lookup. Generation failures are reported on the Result;
// only validation, access, and access-service errors are returned.
func (s *Service) Lookup(ctx context.Context, req Request) (*Result, error) {
	disease, err := ValidateDisease(req.Disease)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	log := s.log.With("user_id", userID, "disease", disease)

	decision, err := s.checker.Reserve(ctx, userID, access.FeatureDiseaseLookup)
	if err != nil {
		return nil, fmt.Errorf("reserve feature access: %w", err)
	}
	if !decision.Allowed {
		log.Info("lookup denied", "reason", decision.Reason)
		return nil, &AccessDeniedError{Decision: decision}
	}

	if cached := s.cache.Get(disease); cached != nil {
		r := cached.clone()
		r.Cached = true
		r.Access = decision
		log.Info("lookup served from cache", "lookup_id", r.ID)
		return r, nil
	}

	r := &Result{
		ID:        uuid.NewString(),
		Disease:   disease,
		Links:     s.links.Links(disease),
		Sections:  sections.NewMap(),
		CreatedAt: time.Now().UTC(),
	}
	log = log.With("lookup_id", r.ID)

	summary, err := s.generator.Summary(ctx, disease)
	if err != nil {
		log.Error("summary failed", "error", err)
		r.SummaryError = "could not generate a summary"
	} else {
		r.Summary = summary
	}

	details, err := s.generator.Details(ctx, disease)
	if err != nil {
		log.Error("details failed", "error", err)
		r.DetailsError = "could not generate detailed information"
	} else {
		r.Details = details
		r.Sections = sections.Extract(details)
	}

	switch {
	case r.SummaryError != "" && r.DetailsError != "":
		r.Status = StatusFailed
		r.Access = s.release(ctx, log, userID, decision)
		s.cache.Put(r.clone())
		log.Warn("lookup failed")
		return r, nil
	case r.SummaryError != "" || r.DetailsError != "":
		r.Status = StatusPartial
	default:
		r.Status = StatusCompleted
	}

	r.Access = decision
	s.cache.Put(r.clone())
	log.Info("lookup complete", "status", r.Status, "sections", r.Sections.Len())
	return r, nil
}

// Access reports the user's current lookup allowance without consuming it.
func (s *Service) Access(ctx context.Context, userID string) (access.Decision, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return access.Decision{}, ErrMissingUser
	}
	d, err := s.checker.Check(ctx, userID, access.FeatureDiseaseLookup)
	if err != nil {
		return access.Decision{}, fmt.Errorf("check feature access: %w", err)
	}
	return d, nil
}

// release returns the use reserved for a failed lookup. It runs even when
// the request context is gone, and a failure is logged, not surfaced.
func (s *Service) release(ctx context.Context, log *slog.Logger, userID string, d access.Decision) access.Decision {
	if err := s.checker.Release(context.WithoutCancel(ctx), userID, access.FeatureDiseaseLookup); err != nil {
		log.Warn("release usage failed", "error", err)
		return d
	}
	if d.Limit > 0 {
		d.Remaining++
	}
	return d
}
