package watcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseTestPage(t *testing.T, html string) Page {
	t.Helper()
	page, err := ParsePage(200, []byte(html))
	if err != nil {
		t.Fatal(err)
	}
	return page
}

func TestClassifyStock(t *testing.T) {
	strategy := StockStrategy{Indicators: DefaultIndicators()}

	testCases := []struct {
		name     string
		html     string
		expected Status
	}{
		{
			name:     "in stock button",
			html:     `<html><body><h1>Gadget</h1><button>Add to Cart</button></body></html>`,
			expected: StatusInStock,
		},
		{
			name:     "sold out text",
			html:     `<html><body><p>Currently Sold Out</p></body></html>`,
			expected: StatusOutOfStock,
		},
		{
			name:     "out of stock wins over in stock",
			html:     `<html><body><button>Add to cart</button><p>Out of stock, notify me when available</p></body></html>`,
			expected: StatusOutOfStock,
		},
		{
			name:     "submit input label",
			html:     `<html><body><input type="submit" value="Notify Me"></body></html>`,
			expected: StatusOutOfStock,
		},
		{
			name:     "uppercase page",
			html:     `<html><body>ADD TO CART</body></html>`,
			expected: StatusInStock,
		},
		{
			name:     "wording split across elements",
			html:     `<html><body><span>Sold</span> <span>Out</span></body></html>`,
			expected: StatusOutOfStock,
		},
		{
			name:     "nothing recognizable",
			html:     `<html><body><p>Lorem ipsum dolor sit amet</p></body></html>`,
			expected: StatusUnknown,
		},
	}

	for _, test := range testCases {
		page := parseTestPage(t, test.html)
		got := strategy.Classify(context.Background(), page)
		require.Equal(t, test.expected, got, test.name)
	}
}

func TestClassifyCustomIndicators(t *testing.T) {
	strategy := StockStrategy{Indicators: StockIndicators{
		InStock:    []string{"ships today"},
		OutOfStock: []string{"", "waitlist"},
	}}

	{
		page := parseTestPage(t, `<html><body>Ships Today from our warehouse</body></html>`)
		require.Equal(t, StatusInStock, strategy.Classify(context.Background(), page))
	}
	{
		page := parseTestPage(t, `<html><body>Join the waitlist</body></html>`)
		require.Equal(t, StatusOutOfStock, strategy.Classify(context.Background(), page))
	}
	{
		// default wording means nothing under custom indicators, and the
		// empty pattern must not match everything
		page := parseTestPage(t, `<html><body>Add to cart</body></html>`)
		require.Equal(t, StatusUnknown, strategy.Classify(context.Background(), page))
	}
}

func TestStatusValue(t *testing.T) {
	require.True(t, StatusInStock.Known())
	require.True(t, StatusOutOfStock.Known())
	require.False(t, StatusUnknown.Known())
	require.False(t, Status("").Known())

	require.True(t, StatusInStock.Equal(StatusInStock))
	require.False(t, StatusInStock.Equal(StatusOutOfStock))
	require.False(t, StatusInStock.Equal(Reading{}))
}

func TestStockDecode(t *testing.T) {
	strategy := StockStrategy{}

	{
		value, ok := strategy.Decode(StateRecord{Mode: ModeStock, Status: StatusInStock})
		require.True(t, ok)
		require.Equal(t, StatusInStock, value)
	}
	{
		_, ok := strategy.Decode(StateRecord{Mode: ModePrice, Amount: "279.00", Currency: "EUR"})
		require.False(t, ok)
	}
	{
		_, ok := strategy.Decode(StateRecord{Mode: ModeStock, Status: StatusUnknown})
		require.False(t, ok)
	}
}

func TestStockExitCode(t *testing.T) {
	strategy := StockStrategy{}
	require.Equal(t, ExitInStock, strategy.ExitCode(StatusInStock, nil))
	require.Equal(t, ExitOutOfStock, strategy.ExitCode(StatusOutOfStock, nil))
	require.Equal(t, ExitUnknown, strategy.ExitCode(StatusUnknown, nil))
}
