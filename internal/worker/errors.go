package worker

import (
	"errors"

	"go.temporal.io/sdk/temporal"

	newserrs "github.com/jdholdren/newsroom/internal/errors"
)

// Error types
//
// These are error types in the temporal sense, not the general "go" error types sense.
// They are used since between activities error types are marshaled and type information is lost.
const (
	errTypeNotFound        = "notFound"
	errTypeInvalidConfig   = "invalidConfig"
	errTypeSweepInProgress = "sweepInProgress"
)

// Unwraps the application error from temporal into a structured error if possible.
//
// Returns true if the error carried one.
// Returns false otherwise.
func asNewsErr(err error, newsErr **newserrs.Error) bool {
	if err == nil {
		return false
	}

	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || !appErr.HasDetails() {
		return false
	}
	return appErr.Details(newsErr) == nil
}

// Reports whether err is an application error of the given type.
func isErrType(err error, errType string) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == errType
}
