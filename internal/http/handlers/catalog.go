package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cytorepo-backend/internal/http/response"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

type CatalogHandler struct {
	log  *logger.Logger
	meta services.MetadataStore
}

func NewCatalogHandler(log *logger.Logger, meta services.MetadataStore) *CatalogHandler {
	return &CatalogHandler{log: log.With("handler", "CatalogHandler"), meta: meta}
}

// GET /api/subprocess-inputs
func (h *CatalogHandler) List(c *gin.Context) {
	out, err := services.ListCatalog(c.Request.Context(), h.meta)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"subprocess_inputs": out})
}
