package service

import (
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-customer-ledger/store"
)

const (
	TextCodeValidation = "VALIDATION_ERROR"
	TextCodeNotFound   = "NOT_FOUND"
	TextCodeInternal   = "INTERNAL_ERROR"
)

func notFoundError(resource string) error {
	return goerrors.New(fmt.Sprintf("%s not found.", resource), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeNotFound)
}

func validationError(fields validation.Errors) error {
	return goerrors.Wrap(fields, goerrors.CategoryValidation, "invalid input").
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeValidation)
}

func fieldError(field, message string) error {
	return validationError(validation.Errors{field: errors.New(message)})
}

func internalError(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeInternal)
}

// storeError translates record store failures for resource.
func storeError(err error, resource string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFoundError(resource)
	case errors.Is(err, store.ErrParentDeleted):
		return fieldError("customer", "Customer is deleted.")
	}
	return internalError(err, "record store failure")
}

// wrapValidation converts ozzo validation output into a validation error.
func wrapValidation(err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return validationError(fields)
	}
	return internalError(err, "validation failed")
}
