package provider

import (
	"errors"

	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
)

// Sentinel errors returned by the provider, matched with errors.Is.
//
// The router and schema packages own the base values; they are re-exported
// here so callers need only this package.
var (
	ErrInvalidResource      = resource.ErrInvalidResource
	ErrMissingRequiredField = schema.ErrMissingRequiredField
	ErrUnknownColumn        = schema.ErrUnknownColumn
	ErrEmptyValues          = schema.ErrEmptyValues
	ErrInvalidValue         = schema.ErrInvalidValue
	ErrInvalidPredicate     = queryir.ErrInvalidPredicate
	ErrUnboundVariable      = queryir.ErrUnboundVariable

	// ErrPersistenceFailure wraps every failure of the underlying store.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrResourceNotFound is returned when an item address has no row.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrUnsupportedStreamType is returned when no stream type of an
	// address matches the requested MIME filter.
	ErrUnsupportedStreamType = errors.New("unsupported stream type")
)

// ErrorCode categorizes provider errors for transports.
type ErrorCode string

const (
	CodeInvalidResource       ErrorCode = "INVALID_RESOURCE"
	CodeMissingRequiredField  ErrorCode = "MISSING_REQUIRED_FIELD"
	CodeUnknownColumn         ErrorCode = "UNKNOWN_COLUMN"
	CodeEmptyValues           ErrorCode = "EMPTY_VALUES"
	CodeInvalidValue          ErrorCode = "INVALID_VALUE"
	CodeInvalidFilter         ErrorCode = "INVALID_FILTER"
	CodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	CodeUnsupportedStreamType ErrorCode = "UNSUPPORTED_STREAM_TYPE"
	CodePersistenceFailure    ErrorCode = "PERSISTENCE_FAILURE"
	CodeInternal              ErrorCode = "INTERNAL"
)

// codeTable is checked in order; the first matching sentinel wins.
// PersistenceFailure is last so that a caller input error wrapped with a
// store error still reports the input error.
var codeTable = []struct {
	err  error
	code ErrorCode
}{
	{ErrInvalidResource, CodeInvalidResource},
	{ErrMissingRequiredField, CodeMissingRequiredField},
	{ErrUnknownColumn, CodeUnknownColumn},
	{ErrEmptyValues, CodeEmptyValues},
	{ErrInvalidValue, CodeInvalidValue},
	{ErrInvalidPredicate, CodeInvalidFilter},
	{ErrUnboundVariable, CodeInvalidFilter},
	{ErrResourceNotFound, CodeResourceNotFound},
	{ErrUnsupportedStreamType, CodeUnsupportedStreamType},
	{ErrPersistenceFailure, CodePersistenceFailure},
}

// Code returns the ErrorCode of err, or CodeInternal when err wraps no
// provider sentinel. Code(nil) is "".
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	for _, entry := range codeTable {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeInternal
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the store.
func IsInputError(err error) bool {
	switch Code(err) {
	case CodeMissingRequiredField, CodeUnknownColumn, CodeEmptyValues,
		CodeInvalidValue, CodeInvalidFilter:
		return true
	}
	return false
}
