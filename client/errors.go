package client

import "fmt"

// ErrorKind classifies failures surfaced to the UI layer.
type ErrorKind int

const (
	// KindValidation covers malformed or duplicate input (4xx except auth).
	KindValidation ErrorKind = iota
	// KindAuthentication covers bad credentials on sign-in.
	KindAuthentication
	// KindAuthorization covers a missing or expired token on a protected call.
	KindAuthorization
	// KindNotFound covers an absent resource or unknown account.
	KindNotFound
	// KindServer covers 5xx and transport failures.
	KindServer
)

// AuthError carries the server's user-displayable message together with a
// classification the UI can dispatch on.
type AuthError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// kindForStatus maps an HTTP status to the error taxonomy.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == 401:
		return KindAuthentication
	case status == 403:
		return KindAuthorization
	case status == 404:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}
