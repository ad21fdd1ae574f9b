package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// MaxAlerts is the most alerts a single aggregation returns.
const MaxAlerts = 20

// ErrNoAlerts means every provider failed.
var ErrNoAlerts = errors.New("no alert provider succeeded")

// AggregationError reports a failure building the alert list.
type AggregationError struct {
	Cause error
}

func (e *AggregationError) Error() string {
	return "aggregate alerts: " + e.Cause.Error()
}

func (e *AggregationError) Unwrap() error { return e.Cause }

type Service struct {
	providers []Provider
	rng       Rand
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Service)

// WithProviders replaces the built-in feeds.
func WithProviders(providers ...Provider) Option {
	return func(s *Service) {
		s.providers = providers
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRand sets the jitter source of the built-in feeds. The source does not
// need to be safe for concurrent use.
func WithRand(rng Rand) Option {
	return func(s *Service) {
		s.rng = &lockedRand{src: rng}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		rng:    globalRand{},
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.providers == nil {
		s.providers = DefaultProviders(s.rng)
	}
	return s
}

// Recent returns the current alert feed. It never fails: any aggregation error
// is logged and the static fallback list is returned instead.
func (s *Service) Recent(ctx context.Context) []Alert {
	alerts, err := s.Aggregate(ctx)
	if err != nil {
		s.logger.Error("failed to aggregate scam alerts, serving fallback list",
			"err", err.Error(), "cause", errors.Unwrap(err))
		return Fallback(s.now())
	}
	return alerts
}

// Aggregate fetches every provider concurrently, merges their output in
// provider order, stable-sorts it newest first and keeps at most MaxAlerts.
// A failing provider contributes nothing; if all of them fail the result is
// an *AggregationError wrapping ErrNoAlerts.
func (s *Service) Aggregate(ctx context.Context) (alerts []Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			alerts = nil
			err = &AggregationError{Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	now := s.now()
	batches := make([][]Alert, len(s.providers))
	ok := make([]bool, len(s.providers))

	var g errgroup.Group
	for i, provider := range s.providers {
		g.Go(func() error {
			batch, err := s.fetch(ctx, provider, now)
			if err != nil {
				s.logger.Error("alert provider failed", "provider", provider.Name(), "err", err)
				return nil
			}
			batches[i] = batch
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if !slices.Contains(ok, true) {
		return nil, &AggregationError{Cause: ErrNoAlerts}
	}

	combined := make([]Alert, 0, MaxAlerts)
	for _, batch := range batches {
		for _, alert := range batch {
			if err := alert.validate(); err != nil {
				return nil, &AggregationError{Cause: err}
			}
			combined = append(combined, alert)
		}
	}

	slices.SortStableFunc(combined, func(a, b Alert) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(combined) > MaxAlerts {
		combined = combined[:MaxAlerts]
	}
	return combined, nil
}

// fetch runs one provider, turning a panic into an error.
func (s *Service) fetch(ctx context.Context, provider Provider, now time.Time) (batch []Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			batch = nil
			err = fmt.Errorf("provider %s panicked: %v", provider.Name(), r)
		}
	}()
	return provider.Fetch(ctx, now)
}
