package coinranking

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy. Every failure returned by the client matches exactly one
// of these via errors.Is.
var (
	ErrInvalidRequest  = errors.New("coinranking: invalid request")
	ErrInvalidResponse = errors.New("coinranking: invalid response")
	ErrDecodingFailure = errors.New("coinranking: decoding failure")
	ErrAPI             = errors.New("coinranking: api error")
)

// RequestError reports a request that could not be built. No I/O happened.
type RequestError struct {
	Endpoint string
	Reason   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("coinranking: invalid request %q: %s", e.Endpoint, e.Reason)
}

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

func (e *RequestError) UserMessage() string {
	return "The URL was invalid. Please check the endpoint."
}

// ResponseError reports a non-2xx status or a transport failure. StatusCode
// is 0 when no response was received; Err then holds the transport cause.
type ResponseError struct {
	StatusCode int
	Err        error
}

func (e *ResponseError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("coinranking: no response: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("coinranking: reading body (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("coinranking: unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *ResponseError) Is(target error) bool { return target == ErrInvalidResponse }

func (e *ResponseError) Unwrap() error { return e.Err }

func (e *ResponseError) UserMessage() string {
	return "The server returned an invalid or unsuccessful response."
}

// DecodingError reports a body that does not match the expected shape.
// The parser message stays out of Error(); use Cause for logs.
type DecodingError struct {
	Endpoint string
	cause    error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("coinranking: failed to decode %s", e.Endpoint)
}

func (e *DecodingError) Is(target error) bool { return target == ErrDecodingFailure }

// Cause returns the underlying parser error.
func (e *DecodingError) Cause() error { return e.cause }

func (e *DecodingError) UserMessage() string {
	return "Failed to decode the data."
}

// APIError carries the message of a well-formed envelope whose status is not "success".
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	return "coinranking: api error: " + e.Message
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

func (e *APIError) UserMessage() string {
	return "API Error: " + e.Message
}
