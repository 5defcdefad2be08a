package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		// only the url is mandatory
		url: "https://shop.example.com/gadget",
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, ModeStock, config.Mode)
	require.Equal(t, "Product", config.ProductName)
	require.Equal(t, time.Second*60, config.Interval())
	require.Equal(t, time.Second*10, config.FetchTimeout())
	require.Equal(t, "last_state.json", config.StatePath())

	diff := cmp.Diff(DefaultIndicators(), config.StockIndicators)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestLoadConfigPriceDefaults(t *testing.T) {
	path := writeConfig(t, `{
		url: "https://shop.example.com/gadget",
		price_file: "gadget_price.json",
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, ModePrice, config.Mode)
	require.Equal(t, time.Second*300, config.Interval())
	require.Equal(t, "gadget_price.json", config.StatePath())
	require.IsType(t, PriceStrategy{}, config.Strategy())
}

func TestLoadConfigExplicitModeWins(t *testing.T) {
	path := writeConfig(t, `{
		url: "https://shop.example.com/gadget",
		mode: "stock",
		price_file: "gadget_price.json",
		state_file: "gadget_state.json",
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, ModeStock, config.Mode)
	require.Equal(t, "gadget_state.json", config.StatePath())
	require.IsType(t, StockStrategy{}, config.Strategy())
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name     string
		contents string
	}{
		{
			"missing url",
			`{ product_name: "Gadget" }`,
		},
		{
			"negative interval",
			`{ url: "https://shop.example.com", check_interval_seconds: -5 }`,
		},
		{
			"unknown mode",
			`{ url: "https://shop.example.com", mode: "sideways" }`,
		},
		{
			"smtp without recipients",
			`{
				url: "https://shop.example.com",
				notification: { enabled: true, smtp: { server: "smtp.example.com", port: 587 } },
			}`,
		},
	}

	for _, test := range testCases {
		path := writeConfig(t, test.contents)
		_, err := LoadConfig(path)
		require.Error(t, err, test.name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json5"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLoadConfigCustomIndicators(t *testing.T) {
	path := writeConfig(t, `{
		url: "https://shop.example.com/gadget",
		stock_indicators: {
			in_stock: ["ships today"],
			out_of_stock: ["waitlist"],
		},
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	diff := cmp.Diff(StockIndicators{
		InStock:    []string{"ships today"},
		OutOfStock: []string{"waitlist"},
	}, config.StockIndicators)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestLoadConfigIndicatorListsFallBackIndependently(t *testing.T) {
	path := writeConfig(t, `{
		url: "https://shop.example.com/gadget",
		stock_indicators: {
			in_stock: ["ships today"],
		},
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	diff := cmp.Diff(StockIndicators{
		InStock:    []string{"ships today"},
		OutOfStock: DefaultIndicators().OutOfStock,
	}, config.StockIndicators)
	if diff != "" {
		t.Fatal(diff)
	}
}
