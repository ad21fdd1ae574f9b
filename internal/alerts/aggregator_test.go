package alerts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func failingProvider(name string) Provider {
	return NewProviderFunc(name, func(context.Context, time.Time) ([]Alert, error) {
		return nil, fmt.Errorf("%s unavailable", name)
	})
}

func staticProvider(name string, alerts ...Alert) Provider {
	return NewProviderFunc(name, func(context.Context, time.Time) ([]Alert, error) {
		return alerts, nil
	})
}

func TestRecentDefaultFeedIsSortedAndValid(t *testing.T) {
	svc := NewService(
		WithClock(fixedClock),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithLogger(quietLogger()),
	)

	alerts := svc.Recent(context.Background())

	want := len(newsIncidents) + len(defiExploits) + len(scamPatterns)
	if len(alerts) != want {
		t.Fatalf("expected %d alerts, got %d", want, len(alerts))
	}
	if len(alerts) > MaxAlerts {
		t.Fatalf("expected at most %d alerts, got %d", MaxAlerts, len(alerts))
	}
	for i, a := range alerts {
		if a.Title == "" {
			t.Fatalf("alert %d has empty title", i)
		}
		if !a.Severity.Valid() {
			t.Fatalf("alert %d has invalid severity %q", i, a.Severity)
		}
		if !a.Timestamp.Before(testNow) {
			t.Fatalf("alert %d timestamp %v is not in the past", i, a.Timestamp)
		}
		if i > 0 && alerts[i-1].Timestamp.Before(a.Timestamp) {
			t.Fatalf("alerts not sorted newest first at %d: %v < %v", i, alerts[i-1].Timestamp, a.Timestamp)
		}
	}
}

func TestRecentAllProvidersFailServesFallback(t *testing.T) {
	var logs bytes.Buffer
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithProviders(failingProvider("a"), failingProvider("b"), failingProvider("c")),
	)

	got := svc.Recent(context.Background())

	if want := Fallback(testNow); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected fallback list\n got: %+v\nwant: %+v", got, want)
	}
	if !bytes.Contains(logs.Bytes(), []byte("serving fallback list")) {
		t.Fatalf("expected fallback to be logged, got %q", logs.String())
	}
}

func TestAggregateAllProvidersFailReturnsAggregationError(t *testing.T) {
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(quietLogger()),
		WithProviders(failingProvider("a"), failingProvider("b")),
	)

	_, err := svc.Aggregate(context.Background())

	var aggErr *AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregationError, got %v", err)
	}
	if !errors.Is(err, ErrNoAlerts) {
		t.Fatalf("expected ErrNoAlerts cause, got %v", err)
	}
}

func TestAggregatePartialFailureKeepsOtherProviders(t *testing.T) {
	alert := Alert{Title: "ok", Source: "s", Severity: SeverityLow, Timestamp: testNow.Add(-time.Minute)}
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(quietLogger()),
		WithProviders(failingProvider("down"), staticProvider("up", alert)),
	)

	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(got) != 1 || got[0] != alert {
		t.Fatalf("unexpected alerts: %+v", got)
	}
}

func TestAggregateRecoversProviderPanic(t *testing.T) {
	alert := Alert{Title: "ok", Source: "s", Severity: SeverityMedium, Timestamp: testNow.Add(-time.Minute)}
	panicky := NewProviderFunc("panicky", func(context.Context, time.Time) ([]Alert, error) {
		panic("boom")
	})
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(quietLogger()),
		WithProviders(panicky, staticProvider("up", alert)),
	)

	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the healthy provider's alert only, got %+v", got)
	}
}

func TestAggregateTruncatesAndKeepsProviderOrderOnTies(t *testing.T) {
	same := testNow.Add(-time.Hour)
	batch := func(prefix string) []Alert {
		out := make([]Alert, 15)
		for i := range out {
			out[i] = Alert{Title: fmt.Sprintf("%s-%02d", prefix, i), Severity: SeverityLow, Timestamp: same}
		}
		return out
	}
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(quietLogger()),
		WithProviders(staticProvider("first", batch("a")...), staticProvider("second", batch("b")...)),
	)

	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(got) != MaxAlerts {
		t.Fatalf("expected %d alerts, got %d", MaxAlerts, len(got))
	}
	for i := 0; i < 15; i++ {
		if want := fmt.Sprintf("a-%02d", i); got[i].Title != want {
			t.Fatalf("position %d: got %q want %q", i, got[i].Title, want)
		}
	}
	for i := 15; i < MaxAlerts; i++ {
		if want := fmt.Sprintf("b-%02d", i-15); got[i].Title != want {
			t.Fatalf("position %d: got %q want %q", i, got[i].Title, want)
		}
	}
}

func TestAggregateSortsNewestFirst(t *testing.T) {
	older := Alert{Title: "older", Severity: SeverityLow, Timestamp: testNow.Add(-2 * time.Hour)}
	newer := Alert{Title: "newer", Severity: SeverityHigh, Timestamp: testNow.Add(-time.Minute)}
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(quietLogger()),
		WithProviders(staticProvider("a", older), staticProvider("b", newer)),
	)

	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got[0].Title != "newer" || got[1].Title != "older" {
		t.Fatalf("unexpected order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestRecentInvalidAlertServesFallback(t *testing.T) {
	bad := Alert{Title: "bad", Severity: "critical", Timestamp: testNow}
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(quietLogger()),
		WithProviders(staticProvider("bad", bad)),
	)

	_, err := svc.Aggregate(context.Background())
	var aggErr *AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregationError, got %v", err)
	}

	if got := svc.Recent(context.Background()); !reflect.DeepEqual(got, Fallback(testNow)) {
		t.Fatalf("expected fallback list, got %+v", got)
	}
}

func TestAggregateEmptyProviderOutputIsNotAnError(t *testing.T) {
	svc := NewService(
		WithClock(fixedClock),
		WithLogger(quietLogger()),
		WithProviders(staticProvider("empty")),
	)

	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestFallbackContent(t *testing.T) {
	got := Fallback(testNow)
	if len(got) != 3 {
		t.Fatalf("expected 3 fallback alerts, got %d", len(got))
	}
	wantSeverities := []Severity{SeverityHigh, SeverityMedium, SeverityHigh}
	wantAgo := []time.Duration{45 * time.Minute, 120 * time.Minute, 180 * time.Minute}
	for i, a := range got {
		if a.Severity != wantSeverities[i] {
			t.Errorf("fallback %d severity: got %q want %q", i, a.Severity, wantSeverities[i])
		}
		if ago := testNow.Sub(a.Timestamp); ago != wantAgo[i] {
			t.Errorf("fallback %d offset: got %v want %v", i, ago, wantAgo[i])
		}
		if a.Link != "" {
			t.Errorf("fallback %d expected empty link, got %q", i, a.Link)
		}
	}
}
