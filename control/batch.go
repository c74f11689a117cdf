// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"github.com/google/uuid"
	"github.com/jcodagnone/geocontrol/geocoder"
)

// Batch is the immutable outcome of one submitted query.
type Batch struct {
	// ID identifies the batch in Select calls.
	ID string

	// Query is the text as submitted.
	Query string

	results []geocoder.Result
}

func newBatch(query string, results []geocoder.Result) *Batch {
	return &Batch{
		ID:      uuid.NewString(),
		Query:   query,
		results: append([]geocoder.Result(nil), results...),
	}
}

// Len returns the number of results.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}

	return len(b.results)
}

// At returns the i-th result in provider relevance order.
func (b *Batch) At(i int) (geocoder.Result, bool) {
	if b == nil || i < 0 || i >= len(b.results) {
		return geocoder.Result{}, false
	}

	return b.results[i], true
}

// Results returns a copy of the results.
func (b *Batch) Results() []geocoder.Result {
	if b == nil {
		return nil
	}

	return append([]geocoder.Result(nil), b.results...)
}
