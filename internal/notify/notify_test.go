package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

func TestAdvisorOutcomesAreWarnings(t *testing.T) {
	rl := FromError(&apperr.RateLimitedError{Message: "try again later"})
	assert.Equal(t, Warn, rl.Level)
	assert.Equal(t, apperr.KindRateLimited, rl.Code)
	assert.Contains(t, rl.Message, "Try again later")
	assert.Equal(t, http.StatusTooManyRequests, Status(&apperr.RateLimitedError{}))

	quota := FromError(&apperr.QuotaExceededError{})
	assert.Equal(t, Warn, quota.Level)
	assert.Contains(t, quota.Message, "quota is exhausted")
	assert.Equal(t, http.StatusPaymentRequired, Status(&apperr.QuotaExceededError{}))

	assert.NotEqual(t, rl.Message, quota.Message)
}

func TestRouteErrorsAreDistinct(t *testing.T) {
	errs := []error{
		&apperr.RouteProviderError{Status: 500},
		&apperr.NoRouteFoundError{},
		&apperr.TransientRouteError{Err: errors.New("dial tcp")},
	}
	seen := map[string]bool{}
	for _, err := range errs {
		n := FromError(err)
		assert.False(t, seen[n.Message], n.Message)
		seen[n.Message] = true
	}

	n := FromError(&apperr.RouteProviderError{Status: 400, Message: "bad waypoint"})
	assert.Equal(t, "The directions service answered: bad waypoint", n.Message)
}

func TestStatusMapping(t *testing.T) {
	cases := map[error]int{
		nil:                                      http.StatusOK,
		apperr.Invalid("title", "is required"):   http.StatusBadRequest,
		&apperr.InsufficientStopsError{Got: 1}:   http.StatusBadRequest,
		&apperr.AuthorizationError{}:             http.StatusForbidden,
		&apperr.NotFoundError{Resource: "trip"}:  http.StatusNotFound,
		&apperr.NoRouteFoundError{}:              http.StatusUnprocessableEntity,
		&apperr.OptimizerError{Status: 500}:      http.StatusBadGateway,
		errors.New("sql: connection reset"):      http.StatusInternalServerError,
		fmt.Errorf("list: %w", context.Canceled): 499,
	}
	for err, want := range cases {
		assert.Equal(t, want, Status(err), "%v", err)
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	n := FromError(errors.New("Error 1045: Access denied for user 'root'"))
	assert.Equal(t, apperr.KindInternal, n.Code)
	assert.NotContains(t, n.Message, "1045")

	v := FromError(apperr.Invalid("end_date", "must not be before start_date"))
	assert.Equal(t, "end_date: must not be before start_date", v.Message)
}

func TestSuggestion(t *testing.T) {
	assert.Equal(t, Info, Suggestion(nil).Level)

	same := Suggestion(&models.OptimizationSuggestion{Explanation: "already good"})
	assert.Equal(t, "Already efficient", same.Title)

	better := Suggestion(&models.OptimizationSuggestion{
		Explanation: "Visit the castle first.",
		Savings:     models.Savings{DistanceKm: 2.345, TimeMinutes: 5.6},
	})
	assert.Equal(t, Success, better.Level)
	assert.Equal(t, "Saves about 2.3 km and 6 min. Visit the castle first.", better.Message)
}

func TestRoute(t *testing.T) {
	n := Route(models.RouteResult{Legs: make([]models.RouteLeg, 2), TotalDistanceMeters: 4200, TotalDurationSeconds: 900})
	assert.Equal(t, "2 legs, 4.2 km, about 15 min.", n.Message)
}
