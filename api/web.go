package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-customer-ledger/search"
	"go.uber.org/zap"
)

const (
	contentTypeJSON     = "application/json; charset=utf-8"
	missingQueryMessage = "No query parameter provided."
	internalMessage     = "internal server error"
)

// Handler is a gin handler that reports failures by returning them.
type Handler func(ctx *gin.Context) error

// RequestError carries a client facing error with its HTTP status.
type RequestError struct {
	Err    error
	Status int
}

// NewRequestError wraps err to be answered with status.
func NewRequestError(err error, status int) error {
	return &RequestError{Err: err, Status: status}
}

func (e *RequestError) Error() string { return e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// wrap adapts h to gin, rendering returned errors.
func wrap(logger *zap.Logger, h Handler) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := h(ctx); err != nil {
			renderError(ctx, logger, err)
		}
	}
}

// Payload writes pre-serialized JSON.
func Payload(ctx *gin.Context, status int, payload []byte) error {
	ctx.Data(status, contentTypeJSON, payload)
	return nil
}

// Respond serializes data as the JSON response body.
func Respond(ctx *gin.Context, data any, status int) error {
	if status == http.StatusNoContent {
		ctx.Status(status)
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return Payload(ctx, status, payload)
}

// decodeJSON reads the request body into dest. An empty body leaves dest
// untouched so that field validation reports the missing fields.
func decodeJSON(ctx *gin.Context, dest any) error {
	err := json.NewDecoder(ctx.Request.Body).Decode(dest)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return NewRequestError(errors.New("JSON parse error - "+err.Error()), http.StatusBadRequest)
}

func renderError(ctx *gin.Context, logger *zap.Logger, err error) {
	var (
		reqErr *RequestError
		fields validation.Errors
		appErr *goerrors.Error
	)

	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		Respond(ctx, gin.H{"error": missingQueryMessage}, http.StatusBadRequest)
		return
	case errors.As(err, &reqErr):
		Respond(ctx, gin.H{"detail": reqErr.Err.Error()}, reqErr.Status)
		return
	case errors.As(err, &fields):
		Respond(ctx, fieldErrors(fields), http.StatusBadRequest)
		return
	case errors.As(err, &appErr):
		switch appErr.Category {
		case goerrors.CategoryNotFound:
			Respond(ctx, gin.H{"detail": appErr.Message}, http.StatusNotFound)
			return
		case goerrors.CategoryValidation:
			Respond(ctx, gin.H{"detail": appErr.Message}, http.StatusBadRequest)
			return
		}
	}

	logger.Error("request failed",
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
		zap.Error(err),
	)
	Respond(ctx, gin.H{"detail": internalMessage}, http.StatusInternalServerError)
}

// fieldErrors renders validation errors as {"field": ["message"]}.
func fieldErrors(fields validation.Errors) map[string][]string {
	out := make(map[string][]string, len(fields))
	for field, err := range fields {
		if err == nil {
			continue
		}
		out[field] = []string{err.Error()}
	}
	return out
}

func notFound(resource string) error {
	return goerrors.New(resource+" not found.", goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound)
}
