package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrLockHeld           = errors.New("lock already held")
	ErrUnknownMarket      = errors.New("unknown market")
	ErrUnknownExchange    = errors.New("unknown exchange")
	ErrAllExchangesFailed = errors.New("all exchanges failed")
)

// ValidationError reports a raw exchange payload that does not match the
// exchange's schema. The whole page is rejected.
type ValidationError struct {
	Exchange Exchange
	Fields   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid upstream payload: %s", strings.ToLower(string(e.Exchange)), strings.Join(e.Fields, "; "))
}

// TransportError is a non-2xx response from an exchange API.
type TransportError struct {
	Exchange   Exchange
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream returned HTTP %d", strings.ToLower(string(e.Exchange)), e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned HTTP %d: %s", strings.ToLower(string(e.Exchange)), e.StatusCode, e.Body)
}

// Unwrap maps well-known status codes onto the package sentinels so callers
// can use errors.Is(err, ErrNotFound) and friends.
func (e *TransportError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return nil
	}
}

// ComputationError wraps a failure inside a price or fee resolver. It never
// escapes the resolver boundary; it exists so the failure can be logged with
// the field that caused it.
type ComputationError struct {
	Field string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("compute %s: %v", e.Field, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// IsCancelled reports whether err stems from the caller cancelling the
// operation. Cancellations are expected and are not logged as failures.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
