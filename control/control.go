// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the place search control: it submits queries to
// the active geocoder, decides between auto-selecting a match and offering
// alternatives, and keeps a single marker on the map.
package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jcodagnone/geocontrol/geocoder"
	"github.com/jcodagnone/geocontrol/spatial"
)

// Marker is the handle a MapView returns for a placed marker.
type Marker any

// MapView is the map the control drives.
type MapView interface {
	// FitViewport moves the viewport so bounds is visible.
	FitViewport(bounds spatial.Bounds)

	// PlaceMarker adds a marker at center with its label already open.
	PlaceMarker(center spatial.Point, label string) Marker

	// RemoveMarker removes a marker returned by PlaceMarker.
	RemoveMarker(m Marker)
}

// View is the input side of the control: busy state, the error indicator and
// the list of alternatives.
type View interface {
	SetBusy(busy bool)
	ShowError(message string)
	ShowAlternatives(batch *Batch)
	ClearResults()
}

const (
	defaultErrorMessage   = "Nothing found."
	defaultFailureMessage = "Search failed."
)

// ErrSuperseded is wrapped by the error Submit returns when a newer query
// replaced it before it completed.
var ErrSuperseded = errors.New("superseded by a newer query")

// Options configuration for Control.
type Options struct {
	// Geocoder is the initial provider. Defaults to Nominatim.
	Geocoder geocoder.Provider

	// ErrorMessage is shown when a query has no match.
	ErrorMessage string

	// FailureMessage is shown when the provider could not be queried.
	FailureMessage string

	// Timeout bounds each query on top of the transport timeout. Zero means
	// no extra bound.
	Timeout time.Duration
}

// Control is the geocoder control. It is safe for concurrent use; the
// collaborators are called with the control locked and must not call back
// into it synchronously.
type Control struct {
	mapView MapView
	view    View
	options Options

	mu        sync.Mutex
	provider  geocoder.Provider
	marker    Marker
	hasMarker bool
	current   *Batch
	seq       uint64
	cancel    context.CancelFunc
	busy      bool
}

// New creates a control drawing on mapView. A nil view discards input side
// updates.
func New(mapView MapView, view View, options *Options) (*Control, error) {
	if mapView == nil {
		return nil, errors.New("control: map view is required")
	}

	var opts Options
	if options != nil {
		opts = *options
	}

	if opts.ErrorMessage == "" {
		opts.ErrorMessage = defaultErrorMessage
	}

	if opts.FailureMessage == "" {
		opts.FailureMessage = defaultFailureMessage
	}

	if opts.Geocoder == nil {
		nominatim, err := geocoder.NewNominatim(nil)
		if err != nil {
			return nil, fmt.Errorf("creating default geocoder: %w", err)
		}

		opts.Geocoder = nominatim
	}

	if view == nil {
		view = discardView{}
	}

	return &Control{
		mapView:  mapView,
		view:     view,
		options:  opts,
		provider: opts.Geocoder,
	}, nil
}

// SetProvider replaces the active provider. Queries already in flight keep
// running against the previous one. A nil provider is ignored.
func (c *Control) SetProvider(p geocoder.Provider) {
	if p == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.provider = p
}

// Provider returns the active provider.
func (c *Control) Provider() geocoder.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.provider
}

// InFlight reports whether a query is waiting for its results.
func (c *Control) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.busy
}

// Current returns the batch whose alternatives are on display, if any.
func (c *Control) Current() *Batch {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// Submit geocodes query with the active provider and applies the result
// policy: no match shows the error indicator, a single match is applied, and
// several matches are offered as alternatives until one is selected.
//
// A newer Submit cancels this one; the superseded call returns an error
// wrapping ErrSuperseded and leaves the view untouched.
func (c *Control) Submit(ctx context.Context, query string) (*Batch, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.options.Timeout > 0 {
		var cancelTimeout context.CancelFunc

		ctx, cancelTimeout = context.WithTimeout(ctx, c.options.Timeout)
		defer cancelTimeout()
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}

	c.seq++
	seq := c.seq
	c.cancel = cancel
	provider := c.provider
	c.current = nil
	c.view.ClearResults()

	if !c.busy {
		c.busy = true
		c.view.SetBusy(true)
	}
	c.mu.Unlock()

	results, err := provider.Geocode(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		log.Printf("control: discarding results for %q, a newer query is in flight", query)

		return nil, &geocoder.GeocodingError{
			Type:    geocoder.ErrorTypeCanceled,
			Message: fmt.Sprintf("query %q", query),
			Err:     errors.Join(ErrSuperseded, err),
		}
	}

	c.cancel = nil
	c.busy = false
	c.view.SetBusy(false)

	if err != nil {
		if geocoder.IsCanceledError(err) {
			return nil, err
		}

		log.Printf("control: geocoding %q failed: %v", query, err)
		c.view.ShowError(c.options.FailureMessage)

		return nil, err
	}

	batch := newBatch(query, results)

	switch batch.Len() {
	case 0:
		c.view.ShowError(c.options.ErrorMessage)
	case 1:
		c.apply(batch.results[0])
	default:
		c.current = batch
		c.view.ShowAlternatives(batch)
	}

	return batch, nil
}

// SubmitAsync runs Submit on a new goroutine. done, when not nil, receives
// its outcome.
func (c *Control) SubmitAsync(ctx context.Context, query string, done func(*Batch, error)) {
	go func() {
		batch, err := c.Submit(ctx, query)
		if done != nil {
			done(batch, err)
		}
	}()
}

// Cancel aborts the query in flight, if any.
func (c *Control) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
}

// Select applies the index-th alternative of the batch identified by batchID
// and clears the alternatives list. It is a no-op returning false when that
// batch is not the one on display or the index is out of range.
func (c *Control) Select(batchID string, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.ID != batchID {
		return false
	}

	r, ok := c.current.At(index)
	if !ok {
		return false
	}

	c.view.ClearResults()
	c.apply(r)

	return true
}

// Edited handles the user changing the query text: alternatives and the
// error indicator go away.
func (c *Control) Edited() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.view.ClearResults()
}

// MarkGeocode applies r as if it had been selected.
func (c *Control) MarkGeocode(r geocoder.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apply(r)
}

// apply fits the viewport to r and moves the marker there. c.mu must be held.
func (c *Control) apply(r geocoder.Result) {
	c.mapView.FitViewport(r.BBox)

	if c.hasMarker {
		c.mapView.RemoveMarker(c.marker)
	}

	c.marker = c.mapView.PlaceMarker(r.Center, strings.TrimSpace(r.Name))
	c.hasMarker = true
}

type discardView struct{}

func (discardView) SetBusy(bool)            {}
func (discardView) ShowError(string)        {}
func (discardView) ShowAlternatives(*Batch) {}
func (discardView) ClearResults()           {}
