// Package httpapi exposes the ingestion, document and chat services over a
// JSON HTTP API built on gin.
//
// Every response uses the same envelope:
//
//	{"code": 0, "message": "ok", "data": {...}}
//
// A non-zero code identifies the failure kind; data is null on failure.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Code: CodeOK, Message: "ok", Data: data})
}

func fail(c *gin.Context, httpStatus, code int, msg string) {
	c.AbortWithStatusJSON(httpStatus, Envelope{Code: code, Message: msg, Data: nil})
}
