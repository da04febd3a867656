// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrCacheMiss        = errors.New("no usable cached scrip master")
	ErrNoSpot           = errors.New("spot price unresolvable")
	ErrNoExpiry         = errors.New("no expiry selected")
	ErrAlreadyPolling   = errors.New("scheduler already polling")
	ErrDatabaseError    = errors.New("database error")
)

// DownloadError represents a failed network fetch.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed [%s]: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// NewDownloadError creates a new DownloadError.
func NewDownloadError(url string, err error) *DownloadError {
	return &DownloadError{URL: url, Err: err}
}

// ParseError represents a malformed response or file.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed [%s]: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// PartialQuoteError reports that one or more quote chunks failed while the
// rest succeeded. It accompanies partial results rather than replacing them.
type PartialQuoteError struct {
	Failed int
	Total  int
}

func (e *PartialQuoteError) Error() string {
	return fmt.Sprintf("quote fetch degraded: %d of %d chunks failed", e.Failed, e.Total)
}

// NewPartialQuoteError creates a new PartialQuoteError.
func NewPartialQuoteError(failed, total int) *PartialQuoteError {
	return &PartialQuoteError{Failed: failed, Total: total}
}

// ConvergenceWarning reports that the implied volatility solver hit its
// iteration cap without reaching tolerance. The estimate is still usable.
type ConvergenceWarning struct {
	Iterations int
	Estimate   float64
}

func (e *ConvergenceWarning) Error() string {
	return fmt.Sprintf("iv solver stopped after %d iterations at %.4f", e.Iterations, e.Estimate)
}

// IsCacheMiss checks if an error is a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// IsNoSpot checks if an error reports an unresolvable spot price.
func IsNoSpot(err error) bool {
	return errors.Is(err, ErrNoSpot)
}

// IsDownloadError checks if an error is a DownloadError.
func IsDownloadError(err error) bool {
	var de *DownloadError
	return errors.As(err, &de)
}

// IsParseError checks if an error is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
