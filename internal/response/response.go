package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response body: every endpoint, success or failure,
// answers with {success, message, data}.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK writes a 200 success envelope
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created writes a 201 success envelope
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fail writes an error envelope with the given status and error code
func Fail(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, Envelope{
		Success: false,
		Message: message,
		Error:   errorCode,
	})
}

// FailWithData writes an error envelope carrying structured detail, e.g. the
// maximum addable quantity on a stock conflict.
func FailWithData(c *gin.Context, statusCode int, errorCode, message string, data interface{}) {
	c.JSON(statusCode, Envelope{
		Success: false,
		Message: message,
		Error:   errorCode,
		Data:    data,
	})
}

// Shorthand helpers for the common cases

func BadRequest(c *gin.Context, errorCode, message string) {
	Fail(c, http.StatusBadRequest, errorCode, message)
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required."
	}
	Fail(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to perform this action."
	}
	Fail(c, http.StatusForbidden, AuthzForbidden, message)
}

func NotFound(c *gin.Context, errorCode, message string) {
	Fail(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode, message string) {
	Fail(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "An unexpected error occurred. Please try again later."
	}
	Fail(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationFailed writes a 400 envelope with field-level detail
func ValidationFailed(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Invalid input.",
		Error:   ValidationInvalidInput,
		Errors:  fields,
	})
}
