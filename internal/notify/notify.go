// Package notify maps results and typed errors to user-facing notices and
// HTTP statuses. It decides what to say, never how it is shown.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

// Level is the severity of a notice.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warn    Level = "warn"
	Error   Level = "error"
)

// Notice is a short message for the traveller.
type Notice struct {
	Level   Level       `json:"level"`
	Code    apperr.Kind `json:"code,omitempty"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

type presentation struct {
	level  Level
	title  string
	status int
}

// presentations is keyed by error kind.
var presentations = map[apperr.Kind]presentation{
	apperr.KindValidation:    {Error, "Check your input", http.StatusBadRequest},
	apperr.KindAuthorization: {Error, "Not allowed", http.StatusForbidden},
	apperr.KindNotFound:      {Error, "Not found", http.StatusNotFound},
	apperr.KindRouteProvider: {Error, "Directions unavailable", http.StatusBadGateway},
	apperr.KindNoRoute:       {Warn, "No route found", http.StatusUnprocessableEntity},
	apperr.KindTransient:     {Warn, "Connection problem", http.StatusServiceUnavailable},
	apperr.KindRateLimited:   {Warn, "Try again later", http.StatusTooManyRequests},
	apperr.KindQuota:         {Warn, "Service quota exhausted", http.StatusPaymentRequired},
	apperr.KindOptimizer:     {Error, "Optimization failed", http.StatusBadGateway},
	apperr.KindInternal:      {Error, "Something went wrong", http.StatusInternalServerError},
}

// FromError describes err. Internal errors get a generic message so that
// driver or SQL details never reach the user.
func FromError(err error) Notice {
	if err == nil {
		return Notice{Level: Success, Title: "Done"}
	}
	if errors.Is(err, context.Canceled) {
		return Notice{Level: Info, Title: "Cancelled", Message: "The request was cancelled."}
	}
	kind := apperr.KindOf(err)
	p := presentations[kind]
	return Notice{Level: p.level, Code: kind, Title: p.title, Message: message(kind, err)}
}

func message(kind apperr.Kind, err error) string {
	switch kind {
	case apperr.KindRateLimited:
		return "The route optimizer is busy. Try again later; your itinerary was not changed."
	case apperr.KindQuota:
		return "The route optimizer's service quota is exhausted. Your itinerary was not changed."
	case apperr.KindNoRoute:
		return "No route connects these stops. Check that every place is reachable."
	case apperr.KindTransient:
		return "The directions service could not be reached. Try again."
	case apperr.KindRouteProvider:
		var pe *apperr.RouteProviderError
		if errors.As(err, &pe) && pe.Message != "" {
			return fmt.Sprintf("The directions service answered: %s", pe.Message)
		}
		return "The directions service returned an error."
	case apperr.KindOptimizer:
		return "No suggestion could be produced for this day."
	case apperr.KindInternal:
		return "An unexpected error occurred."
	default:
		return err.Error()
	}
}

// Status is the HTTP status for err. Cancelled requests map to 499, the
// de-facto "client closed request" code.
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, context.Canceled) {
		return 499
	}
	return presentations[apperr.KindOf(err)].status
}

// Suggestion describes an optimization outcome. A nil suggestion means there
// was nothing to reorder.
func Suggestion(s *models.OptimizationSuggestion) Notice {
	switch {
	case s == nil:
		return Notice{Level: Info, Title: "Nothing to optimize", Message: "This day needs at least two places with coordinates."}
	case s.Savings.DistanceKm <= 0:
		return Notice{Level: Info, Title: "Already efficient", Message: s.Explanation}
	default:
		return Notice{
			Level: Success,
			Title: "Better order found",
			Message: fmt.Sprintf("Saves about %.1f km and %.0f min. %s",
				s.Savings.DistanceKm, s.Savings.TimeMinutes, s.Explanation),
		}
	}
}

// Route summarises a computed route.
func Route(r models.RouteResult) Notice {
	return Notice{
		Level: Success,
		Title: "Route ready",
		Message: fmt.Sprintf("%d legs, %.1f km, about %.0f min.",
			len(r.Legs), r.TotalDistanceMeters/1000, r.TotalDurationSeconds/60),
	}
}
