package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/platform/apierr"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

var errInternal = errors.New("internal error")

// FromError maps a service error onto an HTTP error. Server-side failures
// never expose their text.
func FromError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, services.ErrUnauthenticated) {
		return apierr.New(http.StatusUnauthorized, "unauthorized", services.ErrUnauthenticated)
	}
	code := domainagg.CodeOf(err)
	msg := errors.New(messageOf(err))
	switch code {
	case domainagg.CodeValidation:
		return apierr.New(http.StatusBadRequest, string(code), msg).WithFields(domainagg.FieldsOf(err))
	case domainagg.CodePreconditionFailed:
		return apierr.New(http.StatusBadRequest, string(code), msg).WithFields(domainagg.FieldsOf(err))
	case domainagg.CodeNotFound:
		return apierr.New(http.StatusNotFound, string(code), msg)
	case domainagg.CodeForbidden:
		return apierr.New(http.StatusForbidden, string(code), msg)
	case domainagg.CodeConflict:
		return apierr.New(http.StatusConflict, string(code), msg)
	case domainagg.CodeNotModified:
		return apierr.New(http.StatusNotModified, string(code), msg)
	case domainagg.CodeRetryable:
		return apierr.New(http.StatusServiceUnavailable, string(code), errors.New("temporarily unavailable, retry later"))
	default:
		return apierr.New(http.StatusInternalServerError, string(domainagg.CodeInternal), errInternal)
	}
}

func messageOf(err error) string {
	var de *domainagg.Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// RespondErr renders err and logs server-side failures with their cause.
func RespondErr(c *gin.Context, log *logger.Logger, err error) {
	ae := FromError(err)
	if ae.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "path", c.FullPath(), "code", domainagg.CodeOf(err), "error", err)
	}
	RespondAPIError(c, ae)
}
