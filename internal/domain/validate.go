package domain

import (
	"fmt"
	"math"
)

// ValidateCoordinates rejects non-finite values, values outside
// lat [-90,90] / lng [-180,180], and the (0,0) "no fix" sentinel.
func ValidateCoordinates(lat, lng float64) error {
	if !isFinite(lat) || !isFinite(lng) {
		return fmt.Errorf("%w: geocoder returned non-finite coordinates", ErrUnresolvable)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: geocoder returned out-of-range coordinates lat=%g lng=%g", ErrUnresolvable, lat, lng)
	}
	if lat == 0 && lng == 0 {
		return fmt.Errorf("%w: geocoder returned 0,0", ErrUnresolvable)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
