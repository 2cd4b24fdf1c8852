package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// errorStatus maps a workflow error to an HTTP status and a stable code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domainwf.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domainwf.ErrValidationFailed):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, domainwf.ErrInvalidTransition), errors.Is(err, domainwf.ErrInvalidState):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domainwf.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domainwf.ErrNotEligible):
		return http.StatusForbidden, "not_eligible"
	case errors.Is(err, domainwf.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *handlers) fail(c *gin.Context, msg string, err error) {
	status, code := errorStatus(err)
	text := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "path", c.Request.URL.Path)
		text = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: text, Code: code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg, Code: "bad_request"})
}

// bindBody decodes a JSON body into dst. Unparseable JSON is a bad request;
// a well-formed body with a bad field value fails validation.
func (h *handlers) bindBody(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		badRequest(c, "invalid request body")
		return false
	}
	h.fail(c, "bind request body", fmt.Errorf("%w: %v", domainwf.ErrValidationFailed, err))
	return false
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}
