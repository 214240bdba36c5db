package validation

import (
	"math"

	"github.com/yourorg/wanderplan/internal/apperr"
)

// ValidateLatitude rejects NaN, infinities and values outside [-90, 90].
func ValidateLatitude(lat float64, fieldName string) error {
	if math.IsNaN(lat) {
		return apperr.Invalid(fieldName, "NaN is not a valid latitude")
	}

	if math.IsInf(lat, 0) {
		return apperr.Invalid(fieldName, "infinite latitude")
	}

	if lat < -90 || lat > 90 {
		return apperr.Invalid(fieldName, "must be between -90 and 90 (got %.6f)", lat)
	}

	return nil
}

// ValidateLongitude rejects NaN, infinities and values outside [-180, 180].
func ValidateLongitude(lon float64, fieldName string) error {
	if math.IsNaN(lon) {
		return apperr.Invalid(fieldName, "NaN is not a valid longitude")
	}

	if math.IsInf(lon, 0) {
		return apperr.Invalid(fieldName, "infinite longitude")
	}

	if lon < -180 || lon > 180 {
		return apperr.Invalid(fieldName, "must be between -180 and 180 (got %.6f)", lon)
	}

	return nil
}

// ValidateCoordinatePair validates a (lat, lon) pair; prefix names the fields.
func ValidateCoordinatePair(lat, lon float64, prefix string) error {
	if err := ValidateLatitude(lat, prefix+".latitude"); err != nil {
		return err
	}

	if err := ValidateLongitude(lon, prefix+".longitude"); err != nil {
		return err
	}

	return nil
}

// IsZeroCoordinate reports whether a coordinate is (0, 0), which geocoders
// return for "unknown".
func IsZeroCoordinate(lat, lon float64) bool {
	return lat == 0 && lon == 0
}

// UsableCoordinate reports whether (lat, lon) can be sent to a routing provider.
func UsableCoordinate(lat, lon float64) bool {
	return ValidateCoordinatePair(lat, lon, "") == nil && !IsZeroCoordinate(lat, lon)
}
