// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/quickly-meet/store"
)

// Error kinds returned by the service. Callers match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrStoreFailure = errors.New("store failure")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeErr classifies an error coming back from the store. A missing row
// becomes ErrNotFound; anything else is a StoreFailure.
func storeErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}

// validationErr flattens validator output into one InvalidInput error
// naming the first failing field.
func validationErr(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return invalidf("%s is required", fieldPath(fe))
	case "max":
		return invalidf("%s must be %s characters or less", fieldPath(fe), fe.Param())
	case "min":
		return invalidf("%s needs at least %s entries", fieldPath(fe), fe.Param())
	default:
		return invalidf("%s is invalid", fieldPath(fe))
	}
}

// fieldPath is the JSON path of a failing field without the root type,
// e.g. "time_slots[1].label".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
