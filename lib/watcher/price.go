package watcher

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"shelfwatch/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// Reading is a price observed on the page. A zero Reading means no
// price could be extracted.
type Reading struct {
	Amount   decimal.Decimal
	Currency string
}

func (r Reading) Known() bool {
	return r.Currency != ""
}

func (r Reading) Equal(other Value) bool {
	o, ok := other.(Reading)
	return ok && r.Currency == o.Currency && r.Amount.Equal(o.Amount)
}

func (r Reading) Record() StateRecord {
	return StateRecord{
		Mode:     ModePrice,
		Amount:   r.Amount.String(),
		Currency: r.Currency,
	}
}

func (r Reading) String() string {
	if !r.Known() {
		return "UNKNOWN"
	}
	return r.Currency + " " + r.Amount.StringFixed(2)
}

var currencyCodes = map[string]string{
	"€": "EUR",
	"$": "USD",
	"£": "GBP",
}

var (
	symbolThenAmount = regexp.MustCompile(`([€$£])\s*([0-9][0-9.,]*)`)
	amountThenSymbol = regexp.MustCompile(`([0-9][0-9.,]*)\s*([€$£])`)
	commaDecimal     = regexp.MustCompile(`,\d{2}$`)
)

type priceSource struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

// price markup tried in order, most structured first
var priceSources = []priceSource{
	{"price class", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`[class*=price], [class*=Price], [class*=PRICE]`)
	}},
	{"og price meta", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`meta[property="product:price:amount"]`)
	}},
	{"price itemprop", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`[itemprop="price"]`)
	}},
}

type PriceStrategy struct{}

func (PriceStrategy) Mode() Mode {
	return ModePrice
}

// Classify extracts the first parseable price from the page,
// preferring structured price markup over scanning the page text.
func (PriceStrategy) Classify(ctx context.Context, page Page) Value {
	ctx, span := tracer.Start(ctx, "price.Classify")
	defer span.End()

	reading, source, ok := extractPrice(page)
	if !ok {
		slog.DebugContext(ctx, "no price found on page")
		return Reading{}
	}
	span.SetAttributes(
		attribute.String("source", source),
		attribute.String("price", reading.String()),
	)
	slog.DebugContext(ctx, "extracted price", "source", source, "price", reading.String())
	return reading
}

func extractPrice(page Page) (Reading, string, bool) {
	for _, source := range priceSources {
		var found Reading
		ok := false
		source.find(page.Doc).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			reading, parsed := parsePrice(candidateText(sel))
			if parsed {
				found = reading
				ok = true
				return false
			}
			return true
		})
		if ok {
			return found, source.name, true
		}
	}

	if reading, ok := parsePrice(page.Text); ok {
		return reading, "page text", true
	}
	return Reading{}, "", false
}

// meta and microdata elements carry the price in a content attribute
// rather than in their text
func candidateText(sel *goquery.Selection) string {
	text := htmlutil.CollapseWhitespace(sel.Text())
	if text != "" {
		return text
	}
	content, _ := sel.Attr("content")
	return htmlutil.CollapseWhitespace(content)
}

func parsePrice(text string) (Reading, bool) {
	var symbol, raw string
	if m := symbolThenAmount.FindStringSubmatch(text); m != nil {
		symbol, raw = m[1], m[2]
	} else if m := amountThenSymbol.FindStringSubmatch(text); m != nil {
		raw, symbol = m[1], m[2]
	} else {
		return Reading{}, false
	}

	amount, ok := normalizeAmount(raw)
	if !ok {
		return Reading{}, false
	}
	return Reading{Amount: amount, Currency: currencyCodes[symbol]}, true
}

// normalizeAmount reconciles the two decimal conventions: when both
// separators appear the last one is the decimal point, a lone comma is
// a decimal point only when exactly two digits follow it, and a lone
// period always is.
func normalizeAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.Trim(raw, ".,")

	hasComma := strings.Contains(raw, ",")
	hasPeriod := strings.Contains(raw, ".")
	switch {
	case hasComma && hasPeriod:
		if strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.ReplaceAll(raw, ",", ".")
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case hasComma:
		if commaDecimal.MatchString(raw) {
			raw = strings.ReplaceAll(raw, ",", ".")
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func (PriceStrategy) Decode(record StateRecord) (Value, bool) {
	if record.Mode != ModePrice || record.Currency == "" {
		return nil, false
	}
	amount, err := decimal.NewFromString(record.Amount)
	if err != nil {
		return nil, false
	}
	return Reading{Amount: amount, Currency: record.Currency}, true
}

// a known unchanged price maps to the in stock code, a changed price
// to the out of stock code
func (PriceStrategy) ExitCode(value Value, prior Value) int {
	if value == nil || !value.Known() {
		return ExitUnknown
	}
	if prior == nil || value.Equal(prior) {
		return ExitInStock
	}
	return ExitOutOfStock
}
