// Package api holds the types shared by every version of the public HTTP API.
package api

import "fmt"

// Error is the body of a rejected request.
type Error struct {
	Reason  string        `json:"reason"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

type ErrorDetail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Invalid reports a request body that failed validation, or nil if there were no details.
func Invalid(details ...ErrorDetail) error {
	if len(details) == 0 {
		return nil
	}

	return Error{
		Reason:  "invalid_request",
		Message: "request was invalid",
		Details: details,
	}
}
