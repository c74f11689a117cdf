// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoder defines the provider contract and the adapters for the
// supported geocoding services.
package geocoder

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jcodagnone/geocontrol/spatial"
	"github.com/jcodagnone/geocontrol/transport"
	"golang.org/x/text/unicode/norm"
)

// Result is a normalized geocoding match.
type Result struct {
	// Name is the provider supplied label. Not unique.
	Name string `json:"name"`

	// BBox is the extent of the match. Point geocoders yield a zero-area box.
	BBox spatial.Bounds `json:"bbox"`

	// Center is where the marker goes. Always inside BBox.
	Center spatial.Point `json:"center"`
}

// Provider resolves a free-text query into matches, best first.
//
// Implementations hold only configuration; every call is independent. An
// unmatched query is an empty slice, never an error.
type Provider interface {
	Geocode(ctx context.Context, query string) ([]Result, error)
}

// Requester performs a JSONP call. *transport.Transport implements it.
type Requester interface {
	Do(ctx context.Context, req *transport.Request) (json.RawMessage, error)
}

// Callback receives the outcome of GeocodeAsync.
type Callback func(results []Result, err error)

// GeocodeAsync runs p on a new goroutine and invokes cb exactly once with its
// outcome.
func GeocodeAsync(ctx context.Context, p Provider, query string, cb Callback) {
	go func() {
		results, err := p.Geocode(ctx, query)
		cb(results, err)
	}()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeQuery puts the query in NFC form and collapses whitespace.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(norm.NFC.String(query)), " ")
}

func requesterOrDefault(r Requester) Requester {
	if r == nil {
		return transport.Default()
	}

	return r
}
