package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/http/response"
)

// pathID parses the :id path parameter and answers 400 when it is malformed.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+what+"_id", fmt.Errorf("invalid %s id", strings.ReplaceAll(what, "_", " ")))
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID returns nil for an absent parameter.
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", fmt.Errorf("%s must be a uuid", name))
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", fmt.Errorf("%s must be a non-negative integer", name))
		return 0, false
	}
	return n, true
}

// bindJSON decodes the body and answers 400 without echoing decoder internals.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		msg := "invalid request body"
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			msg = "invalid number in request body"
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New(msg))
		return false
	}
	return true
}
