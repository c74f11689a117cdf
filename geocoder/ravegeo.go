// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jcodagnone/geocontrol/spatial"
	"github.com/jcodagnone/geocontrol/transport"
)

// RaveGeoOptions configuration for RaveGeo.
type RaveGeoOptions struct {
	// ServiceURL is the geocoding endpoint of the RaveGeo installation.
	ServiceURL string `validate:"required,url"`

	// Scheme selects the address scheme configured on the server.
	Scheme string `validate:"required"`

	// QuerySuffix is appended verbatim to every query, e.g. ", Sverige".
	QuerySuffix string

	// DeepSearch enables the server side deep search. Defaults to true.
	DeepSearch *bool

	// WordBased enables word based matching.
	WordBased bool

	// Transport overrides the shared transport.
	Transport Requester `validate:"-"`
}

// RaveGeo geocodes through a RaveGeo address service. It is a point geocoder:
// results carry no native extent.
type RaveGeo struct {
	options    RaveGeoOptions
	deepSearch bool
	client     Requester
}

// NewRaveGeo creates a RaveGeo geocoder.
func NewRaveGeo(options *RaveGeoOptions) (*RaveGeo, error) {
	var opts RaveGeoOptions
	if options != nil {
		opts = *options
	}

	if err := validate.Struct(&opts); err != nil {
		return nil, fmt.Errorf("invalid ravegeo options: %w", err)
	}

	deepSearch := true
	if opts.DeepSearch != nil {
		deepSearch = *opts.DeepSearch
	}

	return &RaveGeo{
		options:    opts,
		deepSearch: deepSearch,
		client:     requesterOrDefault(opts.Transport),
	}, nil
}

// Name returns the provider name.
func (r *RaveGeo) Name() string { return "ravegeo" }

// Request returns the call issued for query.
func (r *RaveGeo) Request(query string) *transport.Request {
	return &transport.Request{
		Endpoint: r.options.ServiceURL,
		Params: url.Values{
			"address":      {NormalizeQuery(query) + r.options.QuerySuffix},
			"scheme":       {r.options.Scheme},
			"outputFormat": {"jsonp"},
			"deepSearch":   {strconv.FormatBool(r.deepSearch)},
			"wordBased":    {strconv.FormatBool(r.options.WordBased)},
		},
		Wrap: true,
	}
}

type raveGeoAddress struct {
	Address string   `json:"address"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
}

// Geocode implements Provider.
func (r *RaveGeo) Geocode(ctx context.Context, query string) ([]Result, error) {
	if NormalizeQuery(query) == "" {
		return []Result{}, nil
	}

	payload, err := r.client.Do(ctx, r.Request(query))
	if err != nil {
		return nil, classifyTransportError(r.Name(), err)
	}

	entries, err := decodeArray(r.Name(), payload)
	if err != nil {
		return nil, err
	}

	return normalizeEntries(r.Name(), entries, raveGeoResult), nil
}

func raveGeoResult(a *raveGeoAddress) (Result, error) {
	if a.X == nil || a.Y == nil {
		return Result{}, fmt.Errorf("missing x/y coordinates")
	}

	center := spatial.Point{Lat: *a.Y, Lng: *a.X}

	return Result{
		Name:   a.Address,
		BBox:   spatial.BoundsFromPoints(center),
		Center: center,
	}, nil
}
