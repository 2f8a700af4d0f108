package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"incubatorhub/internal/service/grant"
)

type PortfolioHandler struct {
	grantService *grant.Service
}

func NewPortfolioHandler(grantService *grant.Service) *PortfolioHandler {
	return &PortfolioHandler{
		grantService: grantService,
	}
}

// GetOverview handles GET /portfolio/overview
func (h *PortfolioHandler) GetOverview(c *gin.Context) {
	overview, err := h.grantService.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
