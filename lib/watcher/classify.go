package watcher

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Status is the availability read off a product page.
type Status string

const (
	StatusInStock    Status = "IN_STOCK"
	StatusOutOfStock Status = "OUT_OF_STOCK"
	StatusUnknown    Status = "UNKNOWN"
)

func (s Status) Known() bool {
	return s == StatusInStock || s == StatusOutOfStock
}

func (s Status) Equal(other Value) bool {
	o, ok := other.(Status)
	return ok && s == o
}

func (s Status) Record() StateRecord {
	return StateRecord{Mode: ModeStock, Status: s}
}

func (s Status) String() string {
	return string(s)
}

// StockIndicators are the ordered substring lists that decide
// availability. Matching is case-insensitive containment, first match
// wins, list order is the tie break.
type StockIndicators struct {
	InStock    []string `json:"in_stock"`
	OutOfStock []string `json:"out_of_stock"`
}

func DefaultIndicators() StockIndicators {
	return StockIndicators{
		InStock: []string{
			"add to cart",
			"buy now",
			"in stock",
		},
		OutOfStock: []string{
			"out of stock",
			"sold out",
			"notify me",
			"coming soon",
			"unavailable",
		},
	}
}

func matchAny(text string, patterns []string) (string, bool) {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(pattern)) {
			return pattern, true
		}
	}
	return "", false
}

type StockStrategy struct {
	Indicators StockIndicators
}

func (s StockStrategy) Mode() Mode {
	return ModeStock
}

// Classify scans the page text for the configured indicators. The out
// of stock list is checked first so that wording like "add to cart
// (notify me when in stock)" resolves conservatively.
func (s StockStrategy) Classify(ctx context.Context, page Page) Value {
	ctx, span := tracer.Start(ctx, "stock.Classify")
	defer span.End()

	text := strings.ToLower(page.Text)

	if pattern, ok := matchAny(text, s.Indicators.OutOfStock); ok {
		span.SetAttributes(attribute.String("matched", pattern))
		slog.DebugContext(ctx, "matched indicator", "status", StatusOutOfStock, "pattern", pattern)
		return StatusOutOfStock
	}
	if pattern, ok := matchAny(text, s.Indicators.InStock); ok {
		span.SetAttributes(attribute.String("matched", pattern))
		slog.DebugContext(ctx, "matched indicator", "status", StatusInStock, "pattern", pattern)
		return StatusInStock
	}
	return StatusUnknown
}

func (s StockStrategy) Decode(record StateRecord) (Value, bool) {
	if record.Mode != ModeStock {
		return nil, false
	}
	switch record.Status {
	case StatusInStock, StatusOutOfStock:
		return record.Status, true
	}
	return nil, false
}

func (s StockStrategy) ExitCode(value Value, prior Value) int {
	switch value {
	case StatusInStock:
		return ExitInStock
	case StatusOutOfStock:
		return ExitOutOfStock
	}
	return ExitUnknown
}
