package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
)

// SummaryCache stores serialized analytics summaries keyed by store revision.
type SummaryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// StoreState is every record of the store as of one revision.
type StoreState struct {
	Revision  uint64
	Companies []Company
	People    []Person
	Attempts  []EmailAttempt
}

// StateReader reads the whole store in a single consistent step.
type StateReader interface {
	ReadState(ctx context.Context) (StoreState, error)
}

// RevisionSource reports a counter that changes whenever the store is mutated.
type RevisionSource interface {
	Revision() uint64
}

// AnalyticsService computes dashboard metrics across all companies.
type AnalyticsService struct {
	state     StateReader
	revisions RevisionSource
	cache     SummaryCache
	logger    *slog.Logger
}

// NewAnalyticsService constructs an analytics service. The cache and revision
// source are optional; without both, every call recomputes the summary.
func NewAnalyticsService(state StateReader, revisions RevisionSource, cache SummaryCache, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		state:     state,
		revisions: revisions,
		cache:     cache,
		logger:    defaultLogger(logger),
	}
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

// Summary returns the engagement summary for the current store revision.
func (s *AnalyticsService) Summary(ctx context.Context) (summary AnalyticsSummary, err error) {
	if s == nil {
		err = fmt.Errorf("AnalyticsService is nil")
		return
	}

	var revision uint64
	if s.revisions != nil {
		revision = s.revisions.Revision()
	}
	key := summaryKey(revision)
	cacheable := s.cache != nil && s.revisions != nil

	logger := s.loggerWith(ctx, "Summary", "revision", revision)
	cached := false
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute analytics summary", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("cached", cached).InfoContext(ctx, "analytics summary served")
	}()

	if cacheable {
		raw, ok, cacheErr := s.cache.Get(ctx, key)
		if cacheErr != nil {
			logger.WarnContext(ctx, "analytics cache read failed", "error", cacheErr)
		} else if ok {
			if jsonErr := json.Unmarshal(raw, &summary); jsonErr == nil {
				cached = true
				return
			}
			logger.WarnContext(ctx, "discarding undecodable cached summary", "key", key)
		}
	}

	summary, err = s.compute(ctx)
	if err != nil {
		return
	}

	// The store may have moved on since the lookup; file the result under the
	// revision it was computed from.
	if cacheable {
		raw, jsonErr := json.Marshal(summary)
		if jsonErr == nil {
			jsonErr = s.cache.Set(ctx, summaryKey(summary.Revision), raw)
		}
		if jsonErr != nil {
			logger.WarnContext(ctx, "analytics cache write failed", "error", jsonErr)
		}
	}
	return
}

func (s *AnalyticsService) compute(ctx context.Context) (AnalyticsSummary, error) {
	summary := AnalyticsSummary{
		CompaniesByDecision: map[string]int{"Yes": 0, "No": 0, "undecided": 0},
		CompaniesByRound:    make(map[int]int),
		AttemptsByNumber:    make(map[int]int),
	}
	if s.state == nil {
		return summary, nil
	}

	state, err := s.state.ReadState(ctx)
	if err != nil {
		return AnalyticsSummary{}, mapRepoError(err)
	}
	summary.Revision = state.Revision

	summary.TotalCompanies = len(state.Companies)
	for _, company := range state.Companies {
		summary.CompaniesByDecision[decisionLabel(company.Decision)]++
		summary.CompaniesByRound[company.CurrentRound()]++
	}

	summary.TotalPeople = len(state.People)
	for _, person := range state.People {
		if person.Attempts == 0 {
			continue
		}
		summary.ContactedPeople++
		if person.Opened {
			summary.OpenedPeople++
		}
		if person.Clicked {
			summary.ClickedPeople++
		}
		if person.ResumeOpened {
			summary.ResumeOpenPeople++
		}
		if person.Responded {
			summary.RespondedPeople++
		}
	}

	summary.TotalEmails = len(state.Attempts)
	for _, attempt := range state.Attempts {
		summary.AttemptsByNumber[attempt.AttemptNumber]++
	}

	summary.OpenRate = percentage(summary.OpenedPeople, summary.ContactedPeople)
	summary.ClickRate = percentage(summary.ClickedPeople, summary.ContactedPeople)
	summary.ResumeOpenRate = percentage(summary.ResumeOpenPeople, summary.ContactedPeople)
	summary.ResponseRate = percentage(summary.RespondedPeople, summary.ContactedPeople)
	return summary, nil
}

func summaryKey(revision uint64) string {
	return fmt.Sprintf("analytics:summary:%d", revision)
}

// percentage returns part/whole as a percentage rounded to one decimal place.
func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(whole)) / 10
}
