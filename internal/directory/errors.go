package directory

import "fmt"

// NetworkError reports a transport failure or a non-2xx response.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FormatError reports a payload that matches neither known response shape.
type FormatError struct {
	URL    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized directory payload from %s: %s", e.URL, e.Reason)
}
