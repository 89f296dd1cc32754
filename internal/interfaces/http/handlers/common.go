// Package handlers implements the HTTP API: scoring, influence analysis,
// archive catalog, the import pipeline, and health probes.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/calledstrike/szas/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error onto its HTTP status. Unrecognized
// errors are masked as internal.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.GetCode(err)
	status := code.HTTPStatus()
	message := err.Error()
	if status == http.StatusInternalServerError {
		code = errors.ErrCodeInternal
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code.String(), Message: message})
}

// queryInt64 parses an optional int64 query parameter.
func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Validation(name + " must be an integer")
	}
	return v, nil
}

// queryInt parses an optional int query parameter.
func queryInt(c *gin.Context, name string) (int, error) {
	v, err := queryInt64(c, name)
	return int(v), err
}

// pathInt parses a required int path parameter.
func pathInt(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errors.Validation(name + " must be an integer")
	}
	return v, nil
}
