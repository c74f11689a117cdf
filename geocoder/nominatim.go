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

const (
	defaultNominatimURL   = "https://nominatim.openstreetmap.org/search"
	defaultNominatimLimit = 5
)

// NominatimOptions configuration for Nominatim.
type NominatimOptions struct {
	// ServiceURL is the search endpoint.
	ServiceURL string `validate:"required,url"`

	// Limit is the maximum number of matches requested.
	Limit int `validate:"min=1,max=50"`

	// Transport overrides the shared transport.
	Transport Requester `validate:"-"`
}

// Nominatim geocodes through the OpenStreetMap Nominatim search API.
type Nominatim struct {
	options NominatimOptions
	client  Requester
}

// NewNominatim creates a Nominatim geocoder. A nil options uses the public
// OpenStreetMap instance.
func NewNominatim(options *NominatimOptions) (*Nominatim, error) {
	var opts NominatimOptions
	if options != nil {
		opts = *options
	}

	if opts.ServiceURL == "" {
		opts.ServiceURL = defaultNominatimURL
	}

	if opts.Limit == 0 {
		opts.Limit = defaultNominatimLimit
	}

	if err := validate.Struct(&opts); err != nil {
		return nil, fmt.Errorf("invalid nominatim options: %w", err)
	}

	return &Nominatim{options: opts, client: requesterOrDefault(opts.Transport)}, nil
}

// Name returns the provider name.
func (n *Nominatim) Name() string { return "nominatim" }

// Request returns the call issued for query.
func (n *Nominatim) Request(query string) *transport.Request {
	return &transport.Request{
		Endpoint: n.options.ServiceURL,
		Params: url.Values{
			"q":      {NormalizeQuery(query)},
			"limit":  {strconv.Itoa(n.options.Limit)},
			"format": {"json"},
		},
		CallbackParam: "json_callback",
	}
}

type nominatimPlace struct {
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"` // south, north, west, east
}

// Geocode implements Provider.
func (n *Nominatim) Geocode(ctx context.Context, query string) ([]Result, error) {
	if NormalizeQuery(query) == "" {
		return []Result{}, nil
	}

	payload, err := n.client.Do(ctx, n.Request(query))
	if err != nil {
		return nil, classifyTransportError(n.Name(), err)
	}

	entries, err := decodeArray(n.Name(), payload)
	if err != nil {
		return nil, err
	}

	return normalizeEntries(n.Name(), entries, nominatimResult), nil
}

func nominatimResult(p *nominatimPlace) (Result, error) {
	if len(p.BoundingBox) != 4 {
		return Result{}, fmt.Errorf("boundingbox has %d values, want 4", len(p.BoundingBox))
	}

	var v [4]float64

	for i, s := range p.BoundingBox {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Result{}, fmt.Errorf("parsing boundingbox: %w", err)
		}

		v[i] = f
	}

	south, north, west, east := v[0], v[1], v[2], v[3]
	bbox := spatial.NewBounds(
		spatial.Point{Lat: south, Lng: west},
		spatial.Point{Lat: north, Lng: east},
	)

	return Result{
		Name:   p.DisplayName,
		BBox:   bbox,
		Center: bbox.Center(),
	}, nil
}
