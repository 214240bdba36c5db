// Package apperr defines the error taxonomy shared by the itinerary store,
// the route client and the optimization advisor.
//
// Every concrete error matches its sentinel kind with errors.Is:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
//
// and can be unpacked with errors.As when the caller needs its fields.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error classification.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindAuthorization Kind = "authorization_error"
	KindNotFound      Kind = "not_found"
	KindRouteProvider Kind = "route_provider_error"
	KindNoRoute       Kind = "no_route_found"
	KindTransient     Kind = "transient_route_error"
	KindRateLimited   Kind = "rate_limited"
	KindQuota         Kind = "quota_exhausted"
	KindOptimizer     Kind = "optimizer_error"
	KindInternal      Kind = "internal_error"
)

type kindError Kind

func (k kindError) Error() string { return string(k) }

// Sentinels for errors.Is.
var (
	ErrValidation    error = kindError(KindValidation)
	ErrAuthorization error = kindError(KindAuthorization)
	ErrNotFound      error = kindError(KindNotFound)
	ErrRouteProvider error = kindError(KindRouteProvider)
	ErrNoRoute       error = kindError(KindNoRoute)
	ErrTransient     error = kindError(KindTransient)
	ErrRateLimited   error = kindError(KindRateLimited)
	ErrQuota         error = kindError(KindQuota)
	ErrOptimizer     error = kindError(KindOptimizer)
)

var sentinels = []error{
	ErrValidation, ErrAuthorization, ErrNotFound,
	ErrRouteProvider, ErrNoRoute, ErrTransient,
	ErrRateLimited, ErrQuota, ErrOptimizer,
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return Kind(s.(kindError))
		}
	}
	return KindInternal
}

// ValidationError is malformed input rejected before anything is sent upstream.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is shorthand for a ValidationError.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStopsError is returned when a route is requested with fewer
// than two usable stops.
type InsufficientStopsError struct {
	Got int
}

func (e *InsufficientStopsError) Error() string {
	return fmt.Sprintf("at least 2 stops are required, got %d", e.Got)
}

func (e *InsufficientStopsError) Is(target error) bool { return target == ErrValidation }

// AuthorizationError is a read or write on a resource the caller does not own.
type AuthorizationError struct {
	Action   string
	Resource string
	ID       string
}

func (e *AuthorizationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("not allowed to %s %s", e.Action, e.Resource)
	}
	return fmt.Sprintf("not allowed to %s %s %s", e.Action, e.Resource, e.ID)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrAuthorization }

// NotFoundError is an id that does not resolve (or resolves to a soft-deleted row).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RouteProviderError is a non-2xx answer from the directions provider.
type RouteProviderError struct {
	Status  int
	Message string
}

func (e *RouteProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("directions provider returned status %d", e.Status)
	}
	return fmt.Sprintf("directions provider returned status %d: %s", e.Status, e.Message)
}

func (e *RouteProviderError) Is(target error) bool { return target == ErrRouteProvider }

// NoRouteFoundError means the provider answered but found no route.
type NoRouteFoundError struct{}

func (e *NoRouteFoundError) Error() string { return "no route found between the given stops" }

func (e *NoRouteFoundError) Is(target error) bool { return target == ErrNoRoute }

// TransientRouteError wraps network and decoding failures. The caller may retry.
type TransientRouteError struct {
	Err error
}

func (e *TransientRouteError) Error() string {
	return fmt.Sprintf("directions request failed: %v", e.Err)
}

func (e *TransientRouteError) Unwrap() error { return e.Err }

func (e *TransientRouteError) Is(target error) bool { return target == ErrTransient }

// RateLimitedError is the optimizer's "try again later" outcome.
type RateLimitedError struct {
	Message string
}

func (e *RateLimitedError) Error() string {
	if e.Message == "" {
		return "route optimizer is rate limited"
	}
	return "route optimizer is rate limited: " + e.Message
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// QuotaExceededError is the optimizer's "service quota exhausted" outcome.
type QuotaExceededError struct {
	Message string
}

func (e *QuotaExceededError) Error() string {
	if e.Message == "" {
		return "route optimizer quota exhausted"
	}
	return "route optimizer quota exhausted: " + e.Message
}

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuota }

// OptimizerError is any other failure of the optimization-suggestion provider.
// Status is zero for network and decoding failures.
type OptimizerError struct {
	Status  int
	Message string
	Err     error
}

func (e *OptimizerError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("route optimizer returned status %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("route optimizer returned status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("route optimizer request failed: %v", e.Err)
	default:
		return "route optimizer failed: " + e.Message
	}
}

func (e *OptimizerError) Unwrap() error { return e.Err }

func (e *OptimizerError) Is(target error) bool { return target == ErrOptimizer }
