package relayer

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds. Every workflow error is a *Failure whose Kind is one of these,
// so errors.Is(err, ErrStalePrice) works on anything Purchase or Redeem returns.
var (
	ErrValidation          = errors.New("validation error")
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrPriceUnavailable    = errors.New("price unavailable")
	ErrStalePrice          = errors.New("stale price")
	ErrSignatureInvalid    = errors.New("invalid signature")
	ErrPositionNotFound    = errors.New("position not found")
	ErrNotOwner            = errors.New("not position owner")
	ErrPositionExpired     = errors.New("position expired")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBridgeQuote         = errors.New("bridge quote failed")
	ErrSettlementCall      = errors.New("settlement call failed")
	ErrInternal            = errors.New("internal error")
)

// Class groups failure kinds by who has to act on them
type Class int

const (
	ClassServerError Class = iota
	ClassBadInput
	ClassNotFound
	ClassForbidden
)

func (c Class) String() string {
	switch c {
	case ClassBadInput:
		return "bad_input"
	case ClassNotFound:
		return "not_found"
	case ClassForbidden:
		return "forbidden"
	default:
		return "server_error"
	}
}

// HTTPStatus returns the status code equivalent of the class
func (c Class) HTTPStatus() int {
	switch c {
	case ClassBadInput:
		return http.StatusBadRequest
	case ClassNotFound:
		return http.StatusNotFound
	case ClassForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type kindInfo struct {
	code  string
	class Class
}

var kinds = map[error]kindInfo{
	ErrValidation:          {"VALIDATION_ERROR", ClassBadInput},
	ErrUnsupportedChain:    {"UNSUPPORTED_CHAIN", ClassBadInput},
	ErrPriceUnavailable:    {"PRICE_UNAVAILABLE", ClassNotFound},
	ErrStalePrice:          {"STALE_PRICE", ClassBadInput},
	ErrSignatureInvalid:    {"SIGNATURE_INVALID", ClassForbidden},
	ErrPositionNotFound:    {"POSITION_NOT_FOUND", ClassNotFound},
	ErrNotOwner:            {"NOT_OWNER", ClassForbidden},
	ErrPositionExpired:     {"POSITION_EXPIRED", ClassBadInput},
	ErrInsufficientBalance: {"INSUFFICIENT_BALANCE", ClassBadInput},
	ErrBridgeQuote:         {"BRIDGE_QUOTE_ERROR", ClassServerError},
	ErrSettlementCall:      {"SETTLEMENT_CALL_ERROR", ClassServerError},
	ErrInternal:            {"INTERNAL_ERROR", ClassServerError},
}

// Failure is a tagged workflow failure
type Failure struct {
	Kind    error
	Message string
	Details map[string]any
	cause   error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is and errors.As
func (f *Failure) Unwrap() []error {
	if f.cause != nil {
		return []error{f.Kind, f.cause}
	}
	return []error{f.Kind}
}

// Code returns the stable machine-readable code of the failure kind
func (f *Failure) Code() string {
	if info, ok := kinds[f.Kind]; ok {
		return info.code
	}
	return kinds[ErrInternal].code
}

// Class returns the class of the failure kind
func (f *Failure) Class() Class {
	if info, ok := kinds[f.Kind]; ok {
		return info.class
	}
	return ClassServerError
}

func newFailure(kind error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (f *Failure) withCause(err error) *Failure {
	f.cause = err
	return f
}

func (f *Failure) with(key string, value any) *Failure {
	if f.Details == nil {
		f.Details = make(map[string]any)
	}
	f.Details[key] = value
	return f
}

// AsFailure returns err as a *Failure, wrapping anything untagged as ErrInternal
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return newFailure(ErrInternal, "unexpected server error").withCause(err)
}

// ClassOf returns the class of any error returned by the workflows
func ClassOf(err error) Class {
	return AsFailure(err).Class()
}

// HTTPStatus returns the status code for an error. Bridge failures are reported
// as a bad gateway so callers can tell them apart from settlement failures.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrBridgeQuote) {
		return http.StatusBadGateway
	}
	return ClassOf(err).HTTPStatus()
}
