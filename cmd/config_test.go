// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcodagnone/geocontrol/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "geocontrol.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(envBingKey, "")
	t.Setenv(envUserAgent, "")

	cfg, err := loadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "nominatim", cfg.Provider)
	assert.Equal(t, defaultUserAgent, cfg.UserAgent)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
provider: ravegeo
user_agent: from-file
timeout: 5s
bing:
  key: file-key
ravegeo:
  service_url: http://geo.example.com/ravegeo
  scheme: sweden
  query_suffix: ", Sverige"
  deep_search: false
`)

	t.Setenv(envBingKey, "env-key")
	t.Setenv(envUserAgent, "")

	cfg, err := loadConfig(path, &globalFlags{provider: "bing", timeout: 2 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, "bing", cfg.Provider, "flag wins over file")
	assert.Equal(t, "env-key", cfg.Bing.Key, "environment wins over file")
	assert.Equal(t, "from-file", cfg.UserAgent)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "sweden", cfg.RaveGeo.Scheme)
	require.NotNil(t, cfg.RaveGeo.DeepSearch)
	assert.False(t, *cfg.RaveGeo.DeepSearch)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		flags   *globalFlags
	}{
		{name: "unknown provider", content: "provider: google\n"},
		{name: "unknown provider flag", content: "", flags: &globalFlags{provider: "here"}},
		{name: "bad url", content: "nominatim:\n  service_url: not a url\n"},
		{name: "limit too big", content: "nominatim:\n  limit: 500\n"},
		{name: "bad yaml", content: "provider: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content), tt.flags)
			assert.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestProviderByName(t *testing.T) {
	cfg := &Config{
		RaveGeo: RaveGeoConfig{ServiceURL: "http://geo.example.com/ravegeo", Scheme: "s"},
	}
	tr := cfg.Transport(nil, false)

	p, err := cfg.newProvider("nominatim", tr)
	require.NoError(t, err)
	assert.IsType(t, &geocoder.Nominatim{}, p)
	assert.Equal(t, "nominatim", p.Name())

	_, err = cfg.newProvider("bing", tr)
	assert.ErrorContains(t, err, envBingKey)

	cfg.Bing.Key = "k"
	p, err = cfg.newProvider("bing", tr)
	require.NoError(t, err)
	assert.Equal(t, "k", p.Request("x").Params.Get("key"))

	p, err = cfg.newProvider("ravegeo", tr)
	require.NoError(t, err)
	assert.True(t, p.Request("x").Wrap)

	_, err = cfg.newProvider("google", tr)
	assert.Error(t, err)

	for _, name := range providerNames {
		assert.NotPanics(t, func() { _, _ = cfg.newProvider(name, tr) })
	}
}
