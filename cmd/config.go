// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jcodagnone/geocontrol/geocoder"
	"github.com/jcodagnone/geocontrol/transport"
	"gopkg.in/yaml.v3"
)

const (
	envBingKey   = "BING_MAPS_KEY"
	envUserAgent = "GEOCODER_USER_AGENT"

	defaultUserAgent = "geocontrol (+https://github.com/jcodagnone/geocontrol)"
)

// providerNames lists the supported providers in display order.
var providerNames = []string{"nominatim", "bing", "ravegeo"}

// Config is the CLI configuration.
type Config struct {
	Provider  string          `yaml:"provider"   validate:"required,oneof=nominatim bing ravegeo"`
	UserAgent string          `yaml:"user_agent"`
	Timeout   time.Duration   `yaml:"timeout"    validate:"gte=0"`
	Nominatim NominatimConfig `yaml:"nominatim"`
	Bing      BingConfig      `yaml:"bing"`
	RaveGeo   RaveGeoConfig   `yaml:"ravegeo"`
}

type NominatimConfig struct {
	ServiceURL string `yaml:"service_url" validate:"omitempty,url"`
	Limit      int    `yaml:"limit"       validate:"gte=0,lte=50"`
}

type BingConfig struct {
	Key        string `yaml:"key"`
	ServiceURL string `yaml:"service_url" validate:"omitempty,url"`
}

type RaveGeoConfig struct {
	ServiceURL  string `yaml:"service_url"  validate:"omitempty,url"`
	Scheme      string `yaml:"scheme"`
	QuerySuffix string `yaml:"query_suffix"`
	DeepSearch  *bool  `yaml:"deep_search"`
	WordBased   bool   `yaml:"word_based"`
}

var configValidate = validator.New(validator.WithRequiredStructEnabled())

// loadConfig reads path when not empty, then applies the environment and the
// command line flags.
func loadConfig(path string, f *globalFlags) (*Config, error) {
	cfg := &Config{
		Provider:  "nominatim",
		UserAgent: defaultUserAgent,
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if key := os.Getenv(envBingKey); key != "" {
		cfg.Bing.Key = key
	}

	if ua := os.Getenv(envUserAgent); ua != "" {
		cfg.UserAgent = ua
	}

	if f != nil {
		if f.provider != "" {
			cfg.Provider = f.provider
		}

		if f.timeout > 0 {
			cfg.Timeout = f.timeout
		}
	}

	if err := configValidate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	return nil
}

// Transport builds the JSONP transport. trace, when not nil, receives a dump
// of every exchange.
func (c *Config) Transport(trace io.Writer, traceBody bool) *transport.Transport {
	return transport.New(&transport.Options{
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
		Trace:     trace,
		TraceBody: traceBody,
	})
}

// namedProvider is what every adapter offers besides Geocode.
type namedProvider interface {
	geocoder.Provider
	Name() string
	Request(query string) *transport.Request
}

// newProvider creates the provider called name using tr.
func (c *Config) newProvider(name string, tr geocoder.Requester) (namedProvider, error) {
	var (
		p   namedProvider
		err error
	)

	switch name {
	case "nominatim":
		p, err = geocoder.NewNominatim(&geocoder.NominatimOptions{
			ServiceURL: c.Nominatim.ServiceURL,
			Limit:      c.Nominatim.Limit,
			Transport:  tr,
		})
	case "bing":
		if c.Bing.Key == "" {
			return nil, errors.New("bing needs a key: set " + envBingKey + " or bing.key")
		}

		p, err = geocoder.NewBing(&geocoder.BingOptions{
			Key:        c.Bing.Key,
			ServiceURL: c.Bing.ServiceURL,
			Transport:  tr,
		})
	case "ravegeo":
		p, err = geocoder.NewRaveGeo(&geocoder.RaveGeoOptions{
			ServiceURL:  c.RaveGeo.ServiceURL,
			Scheme:      c.RaveGeo.Scheme,
			QuerySuffix: c.RaveGeo.QuerySuffix,
			DeepSearch:  c.RaveGeo.DeepSearch,
			WordBased:   c.RaveGeo.WordBased,
			Transport:   tr,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	if err != nil {
		return nil, err
	}

	return p, nil
}

// setup loads the configuration from the global flags and creates the
// active provider.
func setup() (*Config, namedProvider, error) {
	cfg, err := loadConfig(flags.config, &flags)
	if err != nil {
		return nil, nil, err
	}

	var trace io.Writer
	if flags.trace || flags.traceBody {
		trace = os.Stderr
	}

	p, err := cfg.newProvider(cfg.Provider, cfg.Transport(trace, flags.traceBody))
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s geocoder: %w", cfg.Provider, err)
	}

	return cfg, p, nil
}
