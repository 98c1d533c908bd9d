package dto

import "time"

// ErrorResponse is the standard JSON error body returned by every endpoint.
//
// Fields:
//   - Message: human-readable summary of what failed.
//   - ErrorDetails: optional underlying error text (omitted when empty).
//   - Timestamp: when the error response was produced.
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid query parameter"`
	ErrorDetails string    `json:"error,omitempty" example:"strconv.Atoi: parsing ..."`
	Timestamp    time.Time `json:"timestamp"`
}

// Error implements the error interface so an ErrorResponse can travel through
// gin's c.Error chain.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails != "" {
		return e.Message + ": " + e.ErrorDetails
	}
	return e.Message
}

// NewErrorResponse builds an ErrorResponse from a message and an optional
// underlying error.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
