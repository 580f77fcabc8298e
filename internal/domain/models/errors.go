package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch cycle failed.
type ErrorKind string

const (
	KindNetwork          ErrorKind = "network"
	KindService          ErrorKind = "service"
	KindMalformedPayload ErrorKind = "malformed_payload"
	KindInvalidSeries    ErrorKind = "invalid_series"
	KindUnknown          ErrorKind = "unknown"
)

// FailureNotice is the single user-visible message for any failed cycle.
const FailureNotice = "Error fetching data. Please try again."

var (
	ErrNoInstruments = errors.New("no instruments selected")
	ErrCycleInFlight = errors.New("a fetch cycle is already in flight")
)

// NetworkError means the request never completed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string   { return fmt.Sprintf("%s: network: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error   { return e.Err }
func (e *NetworkError) Kind() ErrorKind { return KindNetwork }

// ServiceError means the service answered with a non-success status.
type ServiceError struct {
	Op     string
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service returned status %d: %s", e.Op, e.Status, e.Body)
}
func (e *ServiceError) Kind() ErrorKind { return KindService }

// MalformedPayloadError means the response did not match the contract.
type MalformedPayloadError struct {
	Reason string
	Err    error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}
func (e *MalformedPayloadError) Unwrap() error   { return e.Err }
func (e *MalformedPayloadError) Kind() ErrorKind { return KindMalformedPayload }

// MissingPeriodError is a MalformedPayloadError for an absent period key.
type MissingPeriodError struct {
	Symbol Symbol
	Field  string
	Period string
}

func (e *MissingPeriodError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("missing period %q in %s", e.Period, e.Field)
	}
	return fmt.Sprintf("%s: missing period %q in %s", e.Symbol, e.Period, e.Field)
}
func (e *MissingPeriodError) Kind() ErrorKind { return KindMalformedPayload }

// InvalidSeriesError means a price series cannot be rebased or charted.
type InvalidSeriesError struct {
	Symbol Symbol
	Reason string
}

func (e *InvalidSeriesError) Error() string {
	if e.Symbol == "" {
		return "invalid series: " + e.Reason
	}
	return fmt.Sprintf("%s: invalid series: %s", e.Symbol, e.Reason)
}
func (e *InvalidSeriesError) Kind() ErrorKind { return KindInvalidSeries }

type kinded interface{ Kind() ErrorKind }

// KindOf returns the taxonomy kind of the first classified error in err's chain.
func KindOf(err error) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// ErrorInfo is what a Failed state carries.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
	Notice  string
}

func NewErrorInfo(err error) *ErrorInfo {
	return &ErrorInfo{Kind: KindOf(err), Message: err.Error(), Notice: FailureNotice}
}
