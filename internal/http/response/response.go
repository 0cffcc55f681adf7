package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cytorepo-backend/internal/platform/apierr"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders e. A 304 carries no body.
func RespondAPIError(c *gin.Context, e *apierr.Error) {
	if e.Status == http.StatusNotModified {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(e.Status, ErrorEnvelope{
		Error: APIError{
			Message: e.Error(),
			Code:    e.Code,
			Fields:  e.Fields,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
