package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jdholdren/newsroom/api"
	"github.com/jdholdren/newsroom/internal/news"
)

// Error is an error with the HTTP status and field details it should be reported with.
type Error struct {
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s, details: %v", e.Status, e.Err, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type transport struct {
	Message string   `json:"message"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (s *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(transport{
		Message: s.Err.Error(),
		Details: s.Details,
		Status:  s.Status,
	})
}

func (s *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	s.Err = errors.New(t.Message)
	s.Details = t.Details
	s.Status = t.Status
	return nil
}

// E builds an error from its arguments by type: a string or error becomes the message, an int
// the status, and Details are collected. The status defaults to 500.
func E(args ...any) *Error {
	ret := &Error{
		Status:  http.StatusInternalServerError,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// Coerce turns any error into one that can be written to a client.
//
// Structured errors pass through, request validation failures become 422s and the news
// sentinels get their matching status. Anything else is hidden behind a generic 500.
func Coerce(err error) *Error {
	if sErr := (&Error{}); errors.As(err, &sErr) {
		return sErr
	}
	if apiErr := (api.Error{}); errors.As(err, &apiErr) {
		details := make([]Detail, 0, len(apiErr.Details))
		for _, d := range apiErr.Details {
			details = append(details, Detail{Field: d.Field, Error: d.Error})
		}
		return E(http.StatusUnprocessableEntity, apiErr.Message, details)
	}

	switch {
	case errors.Is(err, news.ErrNotFound):
		return E(http.StatusNotFound, news.ErrNotFound)
	case errors.Is(err, news.ErrConflict):
		return E(http.StatusConflict, news.ErrConflict)
	case errors.Is(err, news.ErrSweepInProgress):
		return E(http.StatusConflict, news.ErrSweepInProgress)
	case errors.Is(err, news.ErrInvalidConfig):
		return E(http.StatusUnprocessableEntity, err)
	case errors.Is(err, news.ErrConstraint):
		return E(http.StatusUnprocessableEntity, news.ErrConstraint)
	}

	return E(http.StatusInternalServerError, "internal server error")
}
