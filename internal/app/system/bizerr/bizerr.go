// Package bizerr declares the error kinds surfaced by the organization core.
//
// Every error returned by a service either is, or wraps, one of the kinds
// below, or is a downstream error passed through unmodified. Callers branch
// with errors.Is:
//
//	switch {
//	case errors.Is(err, bizerr.ErrInvalidParameter): // 400
//	case errors.Is(err, bizerr.ErrNotFound):         // 404
//	case errors.Is(err, bizerr.ErrForbidden):        // 403
//	case errors.Is(err, bizerr.ErrConfig):           // 500, operator action needed
//	}
package bizerr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNotFound         = errors.New("resource not found")
	ErrConfig           = errors.New("configuration error")
	ErrForbidden        = errors.New("forbidden")
)

// InvalidParameter names the offending field.
func InvalidParameter(field string) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, field)
}

// InvalidParameterf wraps ErrInvalidParameter with a formatted detail.
func InvalidParameterf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the missing resource.
func NotFound(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

// Forbidden wraps ErrForbidden with the reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Kind returns the kind sentinel err wraps, or nil for downstream errors.
func Kind(err error) error {
	for _, k := range []error{ErrInvalidParameter, ErrNotFound, ErrConfig, ErrForbidden} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
