package touchline

import (
	"errors"
	"fmt"
)

// Reason tags why a step degraded instead of producing a result.
type Reason string

const (
	ReasonTimeout     Reason = "timeout"
	ReasonHTTPStatus  Reason = "http-status"
	ReasonTransport   Reason = "transport"
	ReasonParse       Reason = "parse"
	ReasonValidation  Reason = "validation"
	ReasonThinContent Reason = "thin-content"
	ReasonRateLimited Reason = "rate-limited"
	ReasonService     Reason = "service"
	ReasonInternal    Reason = "internal"
)

// Failure is returned by the steps that degrade rather than raise: the caller
// records the reason and moves on.
type Failure struct {
	Reason Reason
	Err    error // The error this wraps, may be nil
}

// Fail creates a Failure with the given reason.
func Fail(reason Reason, err error) *Failure {
	return &Failure{Reason: reason, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf extracts the failure reason from err.
//
// Errors that aren't a [Failure] are reported as [ReasonInternal].
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonInternal
}
