// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jcodagnone/geocontrol/spatial"
)

const maxNameLength = 1000

// validateCoordinates checks that a point is inside the WGS84 ranges.
func validateCoordinates(p spatial.Point) error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got %f)", p.Lat)
	}

	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got %f)", p.Lng)
	}

	if !p.Valid() {
		return errors.New("coordinates are not numbers")
	}

	return nil
}

// validateResult checks the invariants every normalized result must hold.
func validateResult(r *Result) error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name cannot be empty")
	}

	if len(r.Name) > maxNameLength {
		return fmt.Errorf("name too long (max %d characters)", maxNameLength)
	}

	if err := validateCoordinates(r.BBox.SouthWest); err != nil {
		return fmt.Errorf("invalid south west corner: %w", err)
	}

	if err := validateCoordinates(r.BBox.NorthEast); err != nil {
		return fmt.Errorf("invalid north east corner: %w", err)
	}

	if err := validateCoordinates(r.Center); err != nil {
		return fmt.Errorf("invalid center: %w", err)
	}

	if !r.BBox.Valid() {
		return fmt.Errorf("south above north in bounding box %s", r.BBox)
	}

	if !r.BBox.Contains(r.Center) {
		return fmt.Errorf("center %s outside %s", r.Center, r.BBox)
	}

	return nil
}

// normalizeEntries decodes payload as a JSON array and converts each element
// with convert. Elements that fail to convert or validate are dropped; the
// order of the survivors is the payload order.
func normalizeEntries[T any](provider string, entries []json.RawMessage, convert func(*T) (Result, error)) []Result {
	results := make([]Result, 0, len(entries))

	for i, raw := range entries {
		var entry T
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Printf("%s: dropping entry %d: %v", provider, i, err)

			continue
		}

		r, err := convert(&entry)
		if err == nil {
			err = validateResult(&r)
		}

		if err != nil {
			log.Printf("%s: dropping entry %d: %v", provider, i, err)

			continue
		}

		results = append(results, r)
	}

	return results
}

// decodeArray decodes payload into its elements. A JSON null is an empty
// array.
func decodeArray(provider string, payload json.RawMessage) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeMalformedResponse,
			Message: provider + ": expected a JSON array",
			Err:     err,
		}
	}

	return entries, nil
}
