package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/http/response"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

// nonFieldErrors collects validation messages not tied to one request field.
const nonFieldErrors = "non_field_errors"

// APIError implements huma.StatusError. It serializes as {"detail": msg},
// or as {field: [msg, ...]} when Fields is set.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status int
	Detail string
	Fields domainerrors.FieldErrors
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Detail
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// MarshalJSON writes the field map or the detail object.
func (e *APIError) MarshalJSON() ([]byte, error) {
	if len(e.Fields) > 0 {
		return json.Marshal(e.Fields)
	}
	return json.Marshal(response.Detail{Detail: e.Detail})
}

func detailError(status int, msg string) *APIError {
	return &APIError{status: status, Detail: msg}
}

// RegisterErrorHandler makes every error huma writes use the APIError shapes.
// huma's 422 for unprocessable input is reported as 400.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		var fields domainerrors.FieldErrors
		for _, err := range errs {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr
			}

			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				if len(domainErr.Fields) == 0 {
					return toAPIError(domainErr)
				}
				for _, name := range domainErr.Fields.Fields() {
					for _, msg := range domainErr.Fields[name] {
						fields.Add(name, msg)
					}
				}
				continue
			}

			var detailer huma.ErrorDetailer
			if errors.As(err, &detailer) {
				d := detailer.ErrorDetail()
				if name := locationField(d.Location); name != "" {
					fields.Add(name, d.Message)
					continue
				}
				message = d.Message
			}
		}

		if len(fields) > 0 {
			return &APIError{status: http.StatusBadRequest, Fields: fields}
		}
		if status >= http.StatusInternalServerError {
			message = response.MsgServerError
		}
		return detailError(status, message)
	}
}

// locationField maps a huma error location to the request field it names.
// "body.price" is "price", "query.tags" is "tags". A bare "body" location
// (the body as a whole failed to parse) has no field.
func locationField(location string) string {
	_, name, ok := strings.Cut(location, ".")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(name, ".["); i > 0 {
		name = name[:i]
	}
	return name
}

// toAPIError converts a service or store failure into its response shape.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		switch {
		case len(domainErr.Fields) > 0:
			return &APIError{status: http.StatusBadRequest, Fields: domainErr.Fields}
		case status >= http.StatusInternalServerError:
			return detailError(status, response.MsgServerError)
		case domainErr.Code == domainerrors.CodeValidation:
			return &APIError{status: status, Fields: domainerrors.FieldErrors{nonFieldErrors: {domainErr.Message}}}
		}
		return detailError(status, domainErr.Message)
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.HTTPCode() == http.StatusNotFound {
		return detailError(http.StatusNotFound, msgNotFound)
	}

	return detailError(http.StatusInternalServerError, response.MsgServerError)
}
