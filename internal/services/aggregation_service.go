package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"andaman/internal/domain"
	"andaman/internal/domain/models"
	"andaman/internal/metrics"
	"andaman/internal/operators"
	"andaman/internal/utils"
)

// SearchOutcome is the aggregation contract: merged results plus
// per-operator failures. Partial failure never aborts a search.
type SearchOutcome struct {
	Results []models.UnifiedFerryResult
	Errors  []models.OperatorError
	Meta    models.SearchMeta
}

// AggregationService fans one search out to every configured operator
// adapter concurrently and collects successes and failures separately.
type AggregationService struct {
	Adapters  []operators.Adapter
	RequestID string
	Now       func() time.Time
}

func (s AggregationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ValidateSearchParams rejects empty locations, identical endpoints,
// past dates and non-positive adult counts.
func (s AggregationService) ValidateSearchParams(params models.SearchParams) error {
	from := strings.TrimSpace(params.From)
	to := strings.TrimSpace(params.To)
	if from == "" {
		return domain.ValidationError{Field: "from", Msg: "departure location is required"}
	}
	if to == "" {
		return domain.ValidationError{Field: "to", Msg: "arrival location is required"}
	}
	if strings.EqualFold(from, to) {
		return domain.ValidationError{Field: "to", Msg: "departure and arrival must differ"}
	}
	if strings.TrimSpace(params.Date) == "" {
		return domain.ValidationError{Field: "date", Msg: "travel date is required"}
	}
	if utils.IsPastDate(params.Date, s.now()) {
		return domain.ValidationError{Field: "date", Msg: "travel date must not be in the past"}
	}
	if params.Adults < 1 {
		return domain.ValidationError{Field: "adults", Msg: "at least one adult is required"}
	}
	if params.Children < 0 || params.Infants < 0 {
		return domain.ValidationError{Field: "passengers", Msg: "passenger counts must not be negative"}
	}
	return nil
}

// Search runs the concurrent fan-out. One goroutine per adapter, joined
// with a WaitGroup; each leg records success or an OperatorError, so
// total latency is bounded by the slowest adapter rather than the sum.
// Returns UnavailableError only when every adapter failed.
func (s AggregationService) Search(ctx context.Context, params models.SearchParams) (SearchOutcome, error) {
	if err := s.ValidateSearchParams(params); err != nil {
		return SearchOutcome{}, err
	}

	start := s.now()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  []models.UnifiedFerryResult
		opErrors []models.OperatorError
		okOps    []models.Operator
		badOps   []models.Operator
	)

	for _, adapter := range s.Adapters {
		wg.Add(1)
		go func(a operators.Adapter) {
			defer wg.Done()
			op := a.Name()

			list, err := a.Search(ctx, params)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.OperatorRequests.WithLabelValues(string(op), "error").Inc()
				utils.LogEvent(s.RequestID, "ferry", "search", string(op)+" failed: "+err.Error())
				opErrors = append(opErrors, models.OperatorError{Operator: op, Error: err.Error()})
				badOps = append(badOps, op)
				return
			}
			metrics.OperatorRequests.WithLabelValues(string(op), "ok").Inc()
			results = append(results, list...)
			okOps = append(okOps, op)
		}(adapter)
	}
	wg.Wait()

	elapsed := s.now().Sub(start)
	metrics.SearchDuration.Observe(elapsed.Seconds())

	if len(okOps) == 0 && len(s.Adapters) > 0 {
		return SearchOutcome{}, domain.UnavailableError{Msg: "all ferry operators are currently unreachable"}
	}

	dedupeIDs(results)

	outcome := SearchOutcome{
		Results: results,
		Errors:  opErrors,
		Meta: models.SearchMeta{
			TotalResults:       len(results),
			OperatorErrors:     emptyIfNilErrors(opErrors),
			AvailableOperators: emptyIfNilOps(okOps),
			FailedOperators:    emptyIfNilOps(badOps),
			SearchTimeMs:       elapsed.Milliseconds(),
		},
	}
	return outcome, nil
}

// dedupeIDs enforces synthetic-ID uniqueness within one result set.
// Collisions get a positional suffix so the UI never keys two cards on
// the same ID.
func dedupeIDs(results []models.UnifiedFerryResult) {
	seen := make(map[string]int, len(results))
	for i := range results {
		id := results[i].ID
		n, dup := seen[id]
		if !dup {
			seen[id] = 0
			continue
		}
		// A suffixed candidate can itself collide with an ID seen
		// earlier, so advance the suffix until one is free.
		candidate := id
		for {
			n++
			candidate = id + "-" + strconv.Itoa(n)
			if _, taken := seen[candidate]; !taken {
				break
			}
		}
		seen[id] = n
		seen[candidate] = 0
		results[i].ID = candidate
	}
}

func emptyIfNilErrors(v []models.OperatorError) []models.OperatorError {
	if v == nil {
		return []models.OperatorError{}
	}
	return v
}

func emptyIfNilOps(v []models.Operator) []models.Operator {
	if v == nil {
		return []models.Operator{}
	}
	return v
}
