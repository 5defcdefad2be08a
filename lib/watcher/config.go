package watcher

import (
	"fmt"
	"os"
	"time"

	"shelfwatch/lib/configutil"
)

type Config struct {
	Url                  string             `json:"url"`
	ProductName          string             `json:"product_name"`
	Mode                 Mode               `json:"mode"`
	CheckIntervalSeconds int                `json:"check_interval_seconds"`
	FetchTimeoutSeconds  int                `json:"fetch_timeout_seconds"`
	StockIndicators      StockIndicators    `json:"stock_indicators"`
	StateFile            string             `json:"state_file"`
	PriceFile            string             `json:"price_file"`
	Notification         NotificationConfig `json:"notification"`
}

// LoadConfig reads and validates the watcher configuration, filling in
// defaults for everything optional. Only the url is required.
func LoadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if os.IsNotExist(err) {
		return Config{}, fmt.Errorf("configuration file not found: %s", path)
	}
	if err != nil {
		return Config{}, err
	}
	err = config.validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Url == "" {
		return fmt.Errorf("url is required")
	}
	if c.ProductName == "" {
		c.ProductName = "Product"
	}

	switch c.Mode {
	case "":
		// a configured price file has always meant price watching
		if c.PriceFile != "" {
			c.Mode = ModePrice
		} else {
			c.Mode = ModeStock
		}
	case ModeStock, ModePrice:
	default:
		return fmt.Errorf("unknown mode: %q", c.Mode)
	}

	if c.CheckIntervalSeconds == 0 {
		if c.Mode == ModePrice {
			c.CheckIntervalSeconds = 300
		} else {
			c.CheckIntervalSeconds = 60
		}
	}
	if c.CheckIntervalSeconds < 1 {
		return fmt.Errorf("check_interval_seconds must be at least 1, got %d", c.CheckIntervalSeconds)
	}

	if c.FetchTimeoutSeconds == 0 {
		c.FetchTimeoutSeconds = 10
	}
	if c.FetchTimeoutSeconds < 1 {
		return fmt.Errorf("fetch_timeout_seconds must be at least 1, got %d", c.FetchTimeoutSeconds)
	}

	// each list falls back to its default independently
	defaults := DefaultIndicators()
	if len(c.StockIndicators.InStock) == 0 {
		c.StockIndicators.InStock = defaults.InStock
	}
	if len(c.StockIndicators.OutOfStock) == 0 {
		c.StockIndicators.OutOfStock = defaults.OutOfStock
	}

	if c.Notification.Smtp.Server != "" && len(c.Notification.Smtp.To) == 0 {
		return fmt.Errorf("notification.smtp.to is required when an smtp server is configured")
	}

	return nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// StatePath resolves where the last known value lives. price_file is
// honored in price mode for compatibility with older configs,
// state_file works everywhere.
func (c Config) StatePath() string {
	if c.Mode == ModePrice && c.PriceFile != "" {
		return c.PriceFile
	}
	if c.StateFile != "" {
		return c.StateFile
	}
	if c.Mode == ModePrice {
		return "last_price.json"
	}
	return "last_state.json"
}

func (c Config) Strategy() Strategy {
	if c.Mode == ModePrice {
		return PriceStrategy{}
	}
	return StockStrategy{Indicators: c.StockIndicators}
}
