package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
)

// fail converts a service error into the response error, logging the cause
// of anything that becomes a 5xx.
func (s *Server) fail(ctx context.Context, err error) error {
	apiErr := toAPIError(err)
	if apiErr.status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			"error", err,
			"request_id", middleware.GetReqID(ctx),
		)
	}
	return apiErr
}

// parseID parses a path id. Anything that is not a positive integer cannot
// name a row, so it is reported as not found.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, detailError(http.StatusNotFound, msgNotFound)
	}
	return id, nil
}
