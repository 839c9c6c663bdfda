package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop-backend/internal/auth"
	"shop-backend/internal/httpx"
	"shop-backend/internal/query"
	"shop-backend/internal/repository"
	"shop-backend/internal/validation"
)

// statusFor maps a store, validation or auth error to its HTTP status.
func statusFor(err error) int {
	var verrs validation.Errors
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, query.ErrInvalidUserID),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// resource names the record kind in error messages.
type resource string

const (
	productResource resource = "Product"
	orderResource   resource = "Order"
	userResource    resource = "User"
)

// fail writes the error envelope for err. fallback is the message for
// unexpected errors, which are also logged.
func (r resource) fail(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	_ = c.Error(err)

	switch {
	case errors.Is(err, repository.ErrInvalidID):
		httpx.Fail(c, status, "Invalid "+strings.ToLower(string(r))+" ID", "")
	case status == http.StatusNotFound:
		httpx.Fail(c, status, string(r)+" not found", "")
	case status == http.StatusConflict:
		httpx.Fail(c, status, string(r)+" already exists", err.Error())
	case status == http.StatusBadRequest:
		httpx.Fail(c, status, "Validation failed", err.Error())
	case status == http.StatusUnauthorized:
		httpx.Fail(c, status, err.Error(), "")
	default:
		log.Error(fallback, zap.Error(err), zap.String("path", c.Request.URL.Path))
		httpx.Fail(c, status, fallback, err.Error())
	}
}

func (r resource) invalidID(c *gin.Context) {
	r.fail(c, nil, repository.ErrInvalidID, "")
}

func invalidBody(c *gin.Context, err error) {
	httpx.Fail(c, http.StatusBadRequest, "Invalid request body", err.Error())
}
