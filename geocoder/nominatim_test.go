// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jcodagnone/geocontrol/geocoder/providertest"
	"github.com/jcodagnone/geocontrol/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestNominatimParis(t *testing.T) {
	srv, tr := newFakeServer(t)
	srv.Respond(providertest.Nominatim, "Paris",
		`[{"display_name":"Paris, France","boundingbox":["48.8","48.9","2.2","2.4"]}]`)

	n, err := NewNominatim(&NominatimOptions{ServiceURL: srv.NominatimURL(), Transport: tr})
	require.NoError(t, err)

	results, err := n.Geocode(context.Background(), "Paris")
	require.NoError(t, err)

	expected := []Result{{
		Name: "Paris, France",
		BBox: spatial.NewBounds(
			spatial.Point{Lat: 48.8, Lng: 2.2},
			spatial.Point{Lat: 48.9, Lng: 2.4},
		),
		Center: spatial.Point{Lat: 48.85, Lng: 2.3},
	}}
	if diff := cmp.Diff(expected, results, approx); diff != "" {
		t.Errorf("Geocode() mismatch (-want +got):\n%s", diff)
	}

	assertCenterInsideBBox(t, results)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)

	q := reqs[0].Query
	assert.Equal(t, "Paris", q.Get("q"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "_l_geocoder_0", q.Get("json_callback"))
}

func TestNominatimPreservesPayloadOrder(t *testing.T) {
	srv, tr := newFakeServer(t)
	srv.Respond(providertest.Nominatim, "Springfield", `[
		{"display_name":"Springfield, Illinois","boundingbox":["39.6","39.9","-89.8","-89.5"]},
		{"display_name":"Springfield, Massachusetts","boundingbox":["42.0","42.2","-72.7","-72.4"]},
		{"display_name":"Springfield, Missouri","boundingbox":["37.0","37.3","-93.4","-93.1"]}
	]`)

	n, err := NewNominatim(&NominatimOptions{ServiceURL: srv.NominatimURL(), Transport: tr})
	require.NoError(t, err)

	results, err := n.Geocode(context.Background(), "Springfield")
	require.NoError(t, err)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{
		"Springfield, Illinois",
		"Springfield, Massachusetts",
		"Springfield, Missouri",
	}, names)
	assertCenterInsideBBox(t, results)
}

func TestNominatimDropsMalformedEntries(t *testing.T) {
	fake := &fakeRequester{payload: `[
		{"display_name":"no bbox"},
		{"display_name":"short bbox","boundingbox":["1","2","3"]},
		{"display_name":"not numbers","boundingbox":["a","2","3","4"]},
		{"display_name":"inverted","boundingbox":["2","1","3","4"]},
		{"boundingbox":["1","2","3","4"]},
		{"display_name":"numbers instead of strings","boundingbox":[1,2,3,4]},
		"garbage",
		{"display_name":"Good","boundingbox":["-35","-34","-57","-56"]}
	]`}

	n, err := NewNominatim(&NominatimOptions{Transport: fake})
	require.NoError(t, err)

	results, err := n.Geocode(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Good", results[0].Name)
	assert.Equal(t, spatial.Point{Lat: -34.5, Lng: -56.5}, results[0].Center)
}

func TestNominatimBoxAcrossAntimeridian(t *testing.T) {
	srv, tr := newFakeServer(t)
	srv.Respond(providertest.Nominatim, "Fiji",
		`[{"display_name":"Fiji","boundingbox":["-21.94","-12.26","172.0","-178.5"]}]`)

	n, err := NewNominatim(&NominatimOptions{ServiceURL: srv.NominatimURL(), Transport: tr})
	require.NoError(t, err)

	results, err := n.Geocode(context.Background(), "Fiji")
	require.NoError(t, err)
	require.Len(t, results, 1)

	fiji := results[0]
	assert.Equal(t, "Fiji", fiji.Name)
	assert.True(t, fiji.BBox.CrossesAntimeridian())
	assert.InDelta(t, -17.1, fiji.Center.Lat, 1e-9)
	assert.InDelta(t, 176.75, fiji.Center.Lng, 1e-9)
	assertCenterInsideBBox(t, results)
}

func TestNominatimRequest(t *testing.T) {
	n, err := NewNominatim(&NominatimOptions{Limit: 10})
	require.NoError(t, err)

	req := n.Request("  Plaza   Independencia ")
	assert.Equal(t, defaultNominatimURL, req.Endpoint)
	assert.Equal(t, "json_callback", req.CallbackParam)
	assert.Equal(t, url.Values{
		"q":      {"Plaza Independencia"},
		"limit":  {"10"},
		"format": {"json"},
	}, req.Params)
}

func TestNominatimOptionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		options *NominatimOptions
		wantErr bool
	}{
		{"defaults", nil, false},
		{"custom url", &NominatimOptions{ServiceURL: "http://localhost:8080/search"}, false},
		{"bad url", &NominatimOptions{ServiceURL: "not a url"}, true},
		{"limit too high", &NominatimOptions{Limit: 100}, true},
		{"negative limit", &NominatimOptions{Limit: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNominatim(tt.options)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNominatimErrors(t *testing.T) {
	srv, tr := newFakeServer(t)
	srv.Fail(providertest.Nominatim, "busy", http.StatusTooManyRequests)
	srv.Respond(providertest.Nominatim, "object", `{"error":"Unable to geocode"}`)

	n, err := NewNominatim(&NominatimOptions{ServiceURL: srv.NominatimURL(), Transport: tr})
	require.NoError(t, err)

	_, err = n.Geocode(context.Background(), "busy")
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))

	_, err = n.Geocode(context.Background(), "object")

	var geoErr *GeocodingError
	require.ErrorAs(t, err, &geoErr)
	assert.Equal(t, ErrorTypeMalformedResponse, geoErr.Type)
}
