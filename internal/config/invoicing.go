package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingConfig carries the regulatory-export fallbacks used when a company
// profile leaves a field blank. Values mirror the Hacienda v4.3 defaults.
type InvoicingConfig struct {
	ActivityCode string `mapstructure:"activity_code"`
	CurrencyCode string `mapstructure:"currency_code"`
	CountryCode  string `mapstructure:"country_code"`
	Province     string `mapstructure:"province"`
	Canton       string `mapstructure:"canton"`
	District     string `mapstructure:"district"`
	Neighborhood string `mapstructure:"neighborhood"`
	PhoneCode    string `mapstructure:"phone_code"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		ActivityCode: "620100000000",
		CurrencyCode: "CRC",
		CountryCode:  "506",
		Province:     "01",
		Canton:       "01",
		District:     "01",
		Neighborhood: "01",
		PhoneCode:    "506",
	}
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewInvoicingConfigHolder loads invoicing.yml if present and watches it for
// changes. Missing file falls back to defaults.
func NewInvoicingConfigHolder() (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/facturacr")
	v.AddConfigPath(".")

	holder := &InvoicingConfigHolder{}
	holder.current.Store(DefaultInvoicingConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return holder, nil
		}
		return nil, err
	}

	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("invoicing config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *InvoicingConfigHolder) Current() InvoicingConfig {
	cfg, _ := h.current.Load().(InvoicingConfig)
	return cfg
}

func (h *InvoicingConfigHolder) reload(v *viper.Viper) error {
	cfg := DefaultInvoicingConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.CurrencyCode) == "" {
		cfg.CurrencyCode = "CRC"
	}
	h.current.Store(cfg)
	return nil
}
