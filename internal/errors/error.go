// Package errors provides the error kinds of catalog operations and their transport specific shapes.
package errors

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrProductNotFound is returned by stores when no row matches.
	ErrProductNotFound = errors.New("product not found")

	// ErrNotFound and ErrBadRequest are the sentinels every transport error unwraps to.
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// Kind classifies a failure reported to callers.
type Kind int

const (
	NotFound Kind = iota + 1
	BadRequest
)

// Status returns the HTTP style status code of the kind.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) sentinel() error {
	switch k {
	case NotFound:
		return ErrNotFound
	case BadRequest:
		return ErrBadRequest
	default:
		return nil
	}
}

// Factory builds the error value a transport expects for a failure kind.
type Factory interface {
	New(kind Kind, message string) error
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(kind Kind, message string) error

func (f FactoryFunc) New(kind Kind, message string) error {
	return f(kind, message)
}

// HTTPError is the conventional exception raised towards request/response handlers.
type HTTPError struct {
	Status  int
	Message string
	kind    Kind
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.kind.sentinel()
}

// HTTPFactory produces *HTTPError values.
var HTTPFactory Factory = FactoryFunc(func(kind Kind, message string) error {
	return &HTTPError{Status: kind.Status(), Message: message, kind: kind}
})

// RPCError is the structured payload returned to remote callers.
type RPCError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

func (e *RPCError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		return nil
	}
}

// GRPCStatus lets the gRPC runtime report the error with a matching code.
func (e *RPCError) GRPCStatus() *status.Status {
	code := codes.Internal
	switch e.Status {
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusBadRequest:
		code = codes.InvalidArgument
	}
	return status.New(code, e.Message)
}

// RPCFactory produces *RPCError values.
var RPCFactory Factory = FactoryFunc(func(kind Kind, message string) error {
	return &RPCError{Status: kind.Status(), Message: message}
})

// NewRPCError builds an RPCError for transport level failures that never reach the service.
func NewRPCError(statusCode int, message string) *RPCError {
	return &RPCError{Status: statusCode, Message: message}
}
