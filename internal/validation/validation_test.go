package validation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestValidateCoordinatePair(t *testing.T) {
	assert.NoError(t, ValidateCoordinatePair(41.3874, 2.1686, "stop"))

	for _, tc := range []struct {
		lat, lon float64
	}{
		{math.NaN(), 0},
		{0, math.Inf(1)},
		{91, 0},
		{0, -181},
	} {
		err := ValidateCoordinatePair(tc.lat, tc.lon, "stop")
		assert.True(t, errors.Is(err, apperr.ErrValidation), "%v,%v", tc.lat, tc.lon)
	}
}

func TestUsableCoordinate(t *testing.T) {
	assert.True(t, UsableCoordinate(-33.45, -70.66))
	assert.False(t, UsableCoordinate(0, 0))
	assert.False(t, UsableCoordinate(100, 0))
}

func validTrip() models.CreateTripInput {
	return models.CreateTripInput{
		Title:     "Lisbon long weekend",
		StartDate: models.MustParseDate("2024-03-01"),
		EndDate:   models.MustParseDate("2024-03-03"),
	}
}

func TestValidateCreateTrip(t *testing.T) {
	require.NoError(t, ValidateCreateTrip(validTrip()))

	in := validTrip()
	in.Title = ""
	err := ValidateCreateTrip(in)
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)

	in = validTrip()
	in.EndDate = models.MustParseDate("2024-02-28")
	err = ValidateCreateTrip(in)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "end_date", ve.Field)

	in = validTrip()
	in.StartDate = models.Date{}
	assert.Error(t, ValidateCreateTrip(in))

	in = validTrip()
	in.Currency = ptr("EUR")
	in.Budget = ptr(1200.0)
	assert.NoError(t, ValidateCreateTrip(in))

	in.Currency = ptr("XYZW")
	assert.Error(t, ValidateCreateTrip(in))

	in.Currency = nil
	in.Budget = ptr(-1.0)
	assert.Error(t, ValidateCreateTrip(in))
}

func TestSingleDayTripIsValid(t *testing.T) {
	in := validTrip()
	in.EndDate = in.StartDate
	assert.NoError(t, ValidateCreateTrip(in))
}

func TestTripSpanIsCapped(t *testing.T) {
	in := validTrip()
	in.EndDate = in.StartDate.AddDays(MaxTripDays - 1)
	assert.NoError(t, ValidateCreateTrip(in))

	in.EndDate = in.StartDate.AddDays(MaxTripDays)
	err := ValidateCreateTrip(in)
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "end_date", ve.Field)

	in.StartDate = models.MustParseDate("1700-01-01")
	in.EndDate = models.MustParseDate("2024-01-01")
	assert.True(t, errors.Is(ValidateCreateTrip(in), apperr.ErrValidation))
}

func TestValidateTripStatus(t *testing.T) {
	trip := models.Trip{
		Title:     "x",
		Status:    models.TripActive,
		StartDate: models.MustParseDate("2024-03-01"),
		EndDate:   models.MustParseDate("2024-03-01"),
	}
	assert.NoError(t, ValidateTrip(trip))

	trip.Status = "archived"
	assert.Error(t, ValidateTrip(trip))
}

func TestValidateItem(t *testing.T) {
	start := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	item := models.TripItem{
		ItemType: models.ItemRestaurant,
		Title:    "Time Out Market",
		StartAt:  &start,
	}
	require.NoError(t, ValidateItem(item))

	item.ItemType = "spaceship"
	assert.Error(t, ValidateItem(item))

	item.ItemType = models.ItemRestaurant
	before := start.Add(-time.Hour)
	item.EndAt = &before
	assert.Error(t, ValidateItem(item))

	item.EndAt = nil
	item.Latitude = ptr(38.7)
	assert.Error(t, ValidateItem(item), "latitude without longitude")

	item.Longitude = ptr(-9.14)
	assert.NoError(t, ValidateItem(item))
}

func TestItemOutsideTripRangeIsTolerated(t *testing.T) {
	far := time.Date(2031, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateItem(models.TripItem{ItemType: models.ItemNote, Title: "later", StartAt: &far}))
}

func TestValidateRegister(t *testing.T) {
	ok := models.RegisterRequest{Username: "ana.m", Email: "ana@example.com", Password: "correct horse", Name: "Ana"}
	require.NoError(t, ValidateRegister(ok))

	cases := map[string]func(r *models.RegisterRequest){
		"username": func(r *models.RegisterRequest) { r.Username = "a b" },
		"email":    func(r *models.RegisterRequest) { r.Email = "ana.example.com" },
		"password": func(r *models.RegisterRequest) { r.Password = "short" },
	}
	for field, mutate := range cases {
		req := ok
		mutate(&req)
		err := ValidateRegister(req)
		var ve *apperr.ValidationError
		require.True(t, errors.As(err, &ve), field)
		assert.Equal(t, field, ve.Field)
	}
}
