package clockify

import "fmt"

// AuthError is returned when the API rejects the key (401/403). The run
// aborts on it; there is nothing to retry with the same credentials.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("clockify rejected the API key (status %d) — check CLOCKIFY_API_KEY", e.StatusCode)
}

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clockify API error (status %d): %s", e.StatusCode, e.Body)
}
