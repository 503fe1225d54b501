package backend

import (
	"errors"
	"fmt"
)

// ErrEmptyReply is returned for a well-formed response without reply text.
var ErrEmptyReply = errors.New("backend returned an empty reply")

// bodyExcerptLength is how much of a failed response body ends up in the
// error shown to the user.
const bodyExcerptLength = 160

// NetworkError is a transport failure talking to the backend.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError is a non-2xx status or a body that is not the expected JSON.
type ProtocolError struct {
	// StatusCode is zero when the status was fine but the body was not.
	StatusCode int
	// Body is an excerpt of the response body.
	Body string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
	}
	return "malformed response: " + e.Body
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func excerpt(body []byte) string {
	runes := []rune(string(body))
	if len(runes) > bodyExcerptLength {
		runes = runes[:bodyExcerptLength]
	}
	return string(runes)
}

// ErrorKind names err for metrics and logs.
func ErrorKind(err error) string {
	var networkErr *NetworkError
	var protocolErr *ProtocolError
	switch {
	case errors.As(err, &networkErr):
		return "network"
	case errors.As(err, &protocolErr):
		if protocolErr.StatusCode != 0 {
			return "status"
		}
		return "malformed"
	case errors.Is(err, ErrEmptyReply):
		return "empty_reply"
	}
	return "other"
}
