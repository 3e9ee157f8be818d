package inference

import "fmt"

// StatusError is returned when the endpoint answers with a non-success status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// FormatError is returned when the endpoint answered but the body is not usable JSON.
type FormatError struct {
	ContentType string
	Message     string
	Err         error
}

func (e *FormatError) Error() string {
	return e.Message
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// TransportError is returned when no response could be obtained or its body could not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "Error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
