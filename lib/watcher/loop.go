package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("watcher")

// Value is a comparable observation of the product page, either a
// stock Status or a price Reading.
type Value interface {
	// Known reports whether the observation carries real information.
	// Unknown observations never overwrite the last known state.
	Known() bool
	Equal(other Value) bool
	Record() StateRecord
	String() string
}

// Strategy decides what a page means. It is the only piece that
// differs between stock and price watching.
type Strategy interface {
	Mode() Mode
	Classify(ctx context.Context, page Page) Value
	// Decode rebuilds a Value from a persisted record, reporting false
	// when the record belongs to another mode or is unusable.
	Decode(record StateRecord) (Value, bool)
	// ExitCode maps an observation to a single-check process exit code.
	ExitCode(value Value, prior Value) int
}

type Alerter interface {
	Notify(ctx context.Context, event Event)
}

// Exit codes for single-check mode. Price watching reuses them: a
// known unchanged price exits ExitInStock, a changed one
// ExitOutOfStock.
const (
	ExitInStock    = 0
	ExitOutOfStock = 1
	ExitUnknown    = 2
)

// Summary is what a finished watch run reports.
type Summary struct {
	Checks   int
	Changes  int
	Failures int
}

// Loop drives the fetch, classify, compare, notify, sleep cycle. The
// last known value is threaded through cycles explicitly; nothing here
// is shared, a Loop is single-threaded by construction.
type Loop struct {
	Product  string
	Url      string
	Interval time.Duration
	Source   PageSource
	Strategy Strategy
	Store    Store
	Notifier Alerter

	// wait is overridable in tests; nil means a real timer
	wait func(ctx context.Context, d time.Duration) bool
}

func NewLoop(config Config) (Loop, error) {
	source, err := NewFetcher(config.Url, config.FetchTimeout())
	if err != nil {
		return Loop{}, err
	}
	return Loop{
		Product:  config.ProductName,
		Url:      config.Url,
		Interval: config.Interval(),
		Source:   source,
		Strategy: config.Strategy(),
		Store:    NewStore(config.StatePath()),
		Notifier: NewNotifier(config.Notification),
	}, nil
}

// Run checks the page on the configured cadence until the context is
// cancelled, then reports how the run went. Failed fetches stretch the
// wait before the next attempt, they never stop the loop.
func (l Loop) Run(ctx context.Context) Summary {
	slog.InfoContext(ctx, "starting watch",
		"product", l.Product,
		"url", l.Url,
		"mode", l.Strategy.Mode(),
		"interval", l.Interval,
	)

	waitFn := l.wait
	if waitFn == nil {
		waitFn = sleepWait
	}

	last := l.loadPrior(ctx)

	var summary Summary
	failures := 0

	for ctx.Err() == nil {
		slog.InfoContext(ctx, "checking", "check", summary.Checks+1)

		next, changed, err := l.cycle(ctx, last)
		if ctx.Err() != nil {
			break
		}
		summary.Checks++

		wait := l.Interval
		if err != nil {
			failures++
			summary.Failures++
			wait = backoffWait(l.Interval, failures)
			slog.ErrorContext(ctx, "check failed",
				"err", err,
				"consecutive_failures", failures,
			)
		} else {
			failures = 0
			last = next
			if changed {
				summary.Changes++
			}
		}

		slog.InfoContext(ctx, "waiting for next check", "wait", wait)
		if !waitFn(ctx, jittered(wait)) {
			break
		}
	}

	slog.InfoContext(ctx, "watch stopped",
		"checks", summary.Checks,
		"changes", summary.Changes,
		"failures", summary.Failures,
	)
	return summary
}

// CheckOnce runs a single fetch and classify pass with no looping, no
// alerts and no state writes, and returns a process exit code.
func (l Loop) CheckOnce(ctx context.Context) int {
	ctx, span := tracer.Start(ctx, "CheckOnce")
	defer span.End()

	prior := l.loadPrior(ctx)

	page, err := l.Source.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		slog.ErrorContext(ctx, "check failed", "err", err)
		return ExitUnknown
	}

	value := l.Strategy.Classify(ctx, page)
	slog.InfoContext(ctx, "checked", "value", value.String())
	return l.Strategy.ExitCode(value, prior)
}

// cycle runs one fetch, classify and compare pass. It returns the
// value to carry into the next cycle; unknown observations and failed
// fetches leave the last known value in place.
func (l Loop) cycle(ctx context.Context, last Value) (next Value, changed bool, err error) {
	ctx, span := tracer.Start(ctx, "cycle")
	defer span.End()

	page, err := l.Source.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return last, false, err
	}

	value := l.Strategy.Classify(ctx, page)
	span.SetAttributes(attribute.String("value", value.String()))
	if !value.Known() {
		// reachable page whose structure we don't recognize, distinct
		// from a fetch failure
		slog.WarnContext(ctx, "could not read state off the page", "value", value.String())
		return last, false, nil
	}

	if last == nil {
		slog.InfoContext(ctx, "recording initial state", "value", value.String())
		l.persist(ctx, value)
		return value, false, nil
	}
	if value.Equal(last) {
		slog.InfoContext(ctx, "no change", "value", value.String())
		return value, false, nil
	}

	slog.InfoContext(ctx, "state changed",
		"previous", last.String(),
		"current", value.String(),
	)
	l.Notifier.Notify(ctx, Event{
		Time:     time.Now(),
		Product:  l.Product,
		Url:      l.Url,
		Previous: last.String(),
		Current:  value.String(),
	})
	l.persist(ctx, value)
	return value, true, nil
}

func (l Loop) loadPrior(ctx context.Context) Value {
	record, found, err := l.Store.Load()
	if err != nil {
		slog.WarnContext(ctx, "failed to read state file", "err", err)
		return nil
	}
	if !found {
		slog.InfoContext(ctx, "no previous state recorded")
		return nil
	}
	value, ok := l.Strategy.Decode(record)
	if !ok {
		slog.WarnContext(ctx, "ignoring unusable state record", "mode", record.Mode)
		return nil
	}
	slog.InfoContext(ctx, "loaded previous state", "value", value.String())
	return value
}

func (l Loop) persist(ctx context.Context, value Value) {
	err := l.Store.Save(value.Record())
	if err != nil {
		// degraded mode: the watch keeps going without durable state
		slog.WarnContext(ctx, "failed to persist state", "err", err)
	}
}

func sleepWait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// backoffWait doubles the configured interval for every consecutive
// failure, capped at five times the interval.
func backoffWait(base time.Duration, failures int) time.Duration {
	limit := base * 5
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= limit {
			return limit
		}
	}
	return wait
}

// jittered stretches a wait by up to a tenth so repeated checks drift
// off an exact cadence.
func jittered(d time.Duration) time.Duration {
	spread := int(d / 10)
	if spread <= 0 {
		return d
	}
	extra, err := random.IntRange(0, spread)
	if err != nil {
		return d
	}
	return d + time.Duration(extra)
}
