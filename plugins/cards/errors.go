package cards

import (
	"errors"
	"fmt"
	"net"
)

// FetchKind classifies why an external fetch failed.
type FetchKind string

const (
	FetchDownload FetchKind = "download"
	FetchParse    FetchKind = "parse"
	FetchStatus   FetchKind = "status"
	FetchTimeout  FetchKind = "timeout"
)

// FetchError is any failure talking to or decoding an external source. The
// pipeline turns these into a single user-visible line; Op and the wrapped
// error are for the log.
type FetchError struct {
	Kind FetchKind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetchf wraps err as a FetchError, promoting transport timeouts to the
// timeout kind so the user-facing line names the real problem.
func Fetchf(kind FetchKind, op string, err error) *FetchError {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		kind = FetchTimeout
	}
	return &FetchError{Kind: kind, Op: op, Err: err}
}
