// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jcodagnone/geocontrol/spatial"
	"github.com/jcodagnone/geocontrol/transport"
)

const defaultBingURL = "https://dev.virtualearth.net/REST/v1/Locations"

// BingOptions configuration for Bing.
type BingOptions struct {
	// Key is the Bing Maps key sent with every request.
	Key string `validate:"required"`

	// ServiceURL is the Locations endpoint.
	ServiceURL string `validate:"required,url"`

	// Transport overrides the shared transport.
	Transport Requester `validate:"-"`
}

// Bing geocodes through the Bing Maps Locations API.
type Bing struct {
	options BingOptions
	client  Requester
}

// NewBing creates a Bing geocoder.
func NewBing(options *BingOptions) (*Bing, error) {
	var opts BingOptions
	if options != nil {
		opts = *options
	}

	if opts.ServiceURL == "" {
		opts.ServiceURL = defaultBingURL
	}

	if err := validate.Struct(&opts); err != nil {
		return nil, fmt.Errorf("invalid bing options: %w", err)
	}

	return &Bing{options: opts, client: requesterOrDefault(opts.Transport)}, nil
}

// Name returns the provider name.
func (b *Bing) Name() string { return "bing" }

// Request returns the call issued for query.
func (b *Bing) Request(query string) *transport.Request {
	return &transport.Request{
		Endpoint: b.options.ServiceURL,
		Params: url.Values{
			"query": {NormalizeQuery(query)},
			"key":   {b.options.Key},
		},
		CallbackParam: "jsonp",
	}
}

type bingResponse struct {
	StatusCode        int      `json:"statusCode"`
	StatusDescription string   `json:"statusDescription"`
	ErrorDetails      []string `json:"errorDetails"`
	ResourceSets      []struct {
		Resources []json.RawMessage `json:"resources"`
	} `json:"resourceSets"`
}

type bingResource struct {
	Name  string    `json:"name"`
	BBox  []float64 `json:"bbox"` // south, west, north, east
	Point *struct {
		Coordinates []float64 `json:"coordinates"` // lat, lon
	} `json:"point"`
}

// Geocode implements Provider.
func (b *Bing) Geocode(ctx context.Context, query string) ([]Result, error) {
	if NormalizeQuery(query) == "" {
		return []Result{}, nil
	}

	payload, err := b.client.Do(ctx, b.Request(query))
	if err != nil {
		return nil, classifyTransportError(b.Name(), err)
	}

	var resp bingResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeMalformedResponse,
			Message: b.Name() + ": decoding response",
			Err:     err,
		}
	}

	// JSONP responses always come back as 200; the real status is in the body.
	if resp.StatusCode != 0 && resp.StatusCode != http.StatusOK {
		geoErr := ClassifyHTTPError(resp.StatusCode, resp.StatusDescription)
		geoErr.Message = fmt.Sprintf("%s: %s %v", b.Name(), geoErr.Message, resp.ErrorDetails)

		return nil, geoErr
	}

	if len(resp.ResourceSets) == 0 {
		return []Result{}, nil
	}

	return normalizeEntries(b.Name(), resp.ResourceSets[0].Resources, bingResult), nil
}

func bingResult(r *bingResource) (Result, error) {
	if len(r.BBox) != 4 {
		return Result{}, fmt.Errorf("bbox has %d values, want 4", len(r.BBox))
	}

	if r.Point == nil || len(r.Point.Coordinates) != 2 {
		return Result{}, fmt.Errorf("missing point coordinates")
	}

	center := spatial.Point{Lat: r.Point.Coordinates[0], Lng: r.Point.Coordinates[1]}
	bbox := spatial.NewBounds(
		spatial.Point{Lat: r.BBox[0], Lng: r.BBox[1]},
		spatial.Point{Lat: r.BBox[2], Lng: r.BBox[3]},
	)

	if bbox.Valid() && !bbox.Contains(center) {
		bbox = bbox.Extend(center)
	}

	return Result{
		Name:   r.Name,
		BBox:   bbox,
		Center: center,
	}, nil
}
