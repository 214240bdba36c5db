package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/currency"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

const (
	maxTitleLength = 200
	// longest trip, in calendar days including both ends
	MaxTripDays = 730
)

// ValidateCreateTrip checks the input of a new trip.
func ValidateCreateTrip(in models.CreateTripInput) error {
	err := ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Title, ozzo.Required, ozzo.Length(1, maxTitleLength)),
		ozzo.Field(&in.StartDate, ozzo.By(requiredDate)),
		ozzo.Field(&in.EndDate, ozzo.By(requiredDate)),
		ozzo.Field(&in.Budget, ozzo.By(nonNegative)),
		ozzo.Field(&in.Currency, ozzo.By(isoCurrency)),
	)
	if err != nil {
		return fromOzzo(err)
	}
	return validateRange(in.StartDate, in.EndDate)
}

// ValidateTrip checks a whole trip, typically after a patch was applied.
func ValidateTrip(t models.Trip) error {
	err := ozzo.ValidateStruct(&t,
		ozzo.Field(&t.Title, ozzo.Required, ozzo.Length(1, maxTitleLength)),
		ozzo.Field(&t.Status, ozzo.Required, ozzo.In(statusValues()...)),
		ozzo.Field(&t.StartDate, ozzo.By(requiredDate)),
		ozzo.Field(&t.EndDate, ozzo.By(requiredDate)),
		ozzo.Field(&t.Budget, ozzo.By(nonNegative)),
		ozzo.Field(&t.Currency, ozzo.By(isoCurrency)),
	)
	if err != nil {
		return fromOzzo(err)
	}
	return validateRange(t.StartDate, t.EndDate)
}

// ValidateItem checks an item before it is inserted or after a patch.
// start_at is deliberately not checked against the trip's date range.
func ValidateItem(item models.TripItem) error {
	err := ozzo.ValidateStruct(&item,
		ozzo.Field(&item.Title, ozzo.Required, ozzo.Length(1, maxTitleLength)),
		ozzo.Field(&item.ItemType, ozzo.Required, ozzo.By(knownItemType)),
	)
	if err != nil {
		return fromOzzo(err)
	}

	if item.StartAt != nil && item.EndAt != nil && item.EndAt.Before(*item.StartAt) {
		return apperr.Invalid("end_at", "must not be before start_at")
	}

	if (item.Latitude == nil) != (item.Longitude == nil) {
		return apperr.Invalid("latitude", "latitude and longitude must be set together")
	}
	if item.HasLocation() {
		if err := ValidateLatitude(*item.Latitude, "latitude"); err != nil {
			return err
		}
		if err := ValidateLongitude(*item.Longitude, "longitude"); err != nil {
			return err
		}
	}
	return nil
}

func validateRange(start, end models.Date) error {
	if end.Before(start) {
		return apperr.Invalid("end_date", "must be on or after start_date (%s)", start)
	}
	if start.DaysUntil(end)+1 > MaxTripDays {
		return apperr.Invalid("end_date", "trip cannot be longer than %d days", MaxTripDays)
	}
	return nil
}

func statusValues() []interface{} {
	values := make([]interface{}, 0, len(models.TripStatuses))
	for _, s := range models.TripStatuses {
		values = append(values, s)
	}
	return values
}

func requiredDate(value interface{}) error {
	d, _ := value.(models.Date)
	if d.IsZero() {
		return errors.New("cannot be blank")
	}
	return nil
}

func nonNegative(value interface{}) error {
	var v float64
	switch x := value.(type) {
	case *float64:
		if x == nil {
			return nil
		}
		v = *x
	case float64:
		v = x
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func isoCurrency(value interface{}) error {
	var code string
	switch x := value.(type) {
	case *string:
		if x == nil {
			return nil
		}
		code = *x
	case string:
		code = x
	}
	if _, err := currency.ParseISO(strings.ToUpper(code)); err != nil {
		return fmt.Errorf("%q is not an ISO 4217 currency code", code)
	}
	return nil
}

func knownItemType(value interface{}) error {
	t, _ := value.(models.ItemType)
	if !t.Valid() {
		return fmt.Errorf("unknown item type %q", t)
	}
	return nil
}

// fromOzzo reports the first failing field (alphabetically) as a ValidationError.
func fromOzzo(err error) error {
	var errs ozzo.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return &apperr.ValidationError{Field: fields[0], Message: errs[fields[0]].Error()}
}
