package llm

import "fmt"

// BackendUnavailableError indicates the generation backend could not be
// reached or refused the request: connection failure, timeout, or a
// non-2xx status.
type BackendUnavailableError struct {
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("llm backend unavailable: %v", e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the backend answered successfully but
// the expected response field was absent or undecodable.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed llm backend response: %s", e.Detail)
}
