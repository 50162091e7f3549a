package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Envelope wraps every API response body.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody carries the message of a failed call.
type ErrorBody struct {
	Message string `json:"message"`
}

// Page is one page of a log listing. NextBefore is the cursor for the next
// (older) page and is empty on the last one.
type Page struct {
	Logs       []json.RawMessage `json:"logs"`
	NextBefore string            `json:"nextBefore,omitempty"`
}

// StatusError is a non-2xx or ok:false reply.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
}

// IsPermanent reports whether err is a client error that retrying cannot
// fix. Transport failures and 5xx replies are not permanent.
func IsPermanent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 400 && se.Status < 500
}

// IsNotFound reports whether err is a 404 reply.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
