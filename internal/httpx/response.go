// Package httpx holds the JSON envelopes every endpoint answers with.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shop-backend/internal/query"
)

type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data"`
	Pagination *query.Meta `json:"pagination,omitempty"`
	Token      string      `json:"token,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func List(c *gin.Context, data any, meta query.Meta) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &meta})
}

func WithToken(c *gin.Context, message string, data any, token string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data, Token: token})
}

// Fail writes the error envelope and aborts the chain. detail may be empty.
func Fail(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Message: message, Error: detail})
}
