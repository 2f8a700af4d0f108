package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"incubatorhub/internal/model"
	"incubatorhub/internal/service/grant"
)

type GrantHandler struct {
	grantService *grant.Service
}

func NewGrantHandler(grantService *grant.Service) *GrantHandler {
	return &GrantHandler{
		grantService: grantService,
	}
}

// GetCatalog handles GET /startups/:id/grants
func (h *GrantHandler) GetCatalog(c *gin.Context) {
	catalog, err := h.grantService.Catalog(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// ListDisbursements handles GET /startups/:id/grants/disbursements
func (h *GrantHandler) ListDisbursements(c *gin.Context) {
	listings, err := h.grantService.ListDisbursements(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"disbursements": listings,
	})
}

// GetSnapshot handles GET /startups/:id/grants/snapshot?grantId=
// With no grantId it summarizes the startup's first grant.
func (h *GrantHandler) GetSnapshot(c *gin.Context) {
	summary, err := h.grantService.Snapshot(c.Request.Context(), c.Param("id"), c.Query("grantId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RequestDisbursement handles POST /startups/:id/grants/:grantId/disbursements
func (h *GrantHandler) RequestDisbursement(c *gin.Context) {
	var body struct {
		Amount            any    `json:"amount"`
		MilestoneID       string `json:"milestoneId"`
		RequestedBy       string `json:"requestedBy"`
		Note              string `json:"note"`
		TargetReleaseDate any    `json:"targetReleaseDate"`
		Reference         string `json:"reference"`
		Tranche           string `json:"tranche"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.grantService.RequestDisbursement(
		c.Request.Context(),
		c.Param("id"),
		c.Param("grantId"),
		grant.DisbursementRequest{
			Amount:            model.CoerceNumber(body.Amount, 0),
			MilestoneID:       body.MilestoneID,
			RequestedBy:       body.RequestedBy,
			Note:              body.Note,
			TargetReleaseDate: model.CoerceTime(body.TargetReleaseDate),
			Reference:         body.Reference,
			Tranche:           body.Tranche,
		},
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// UpdateDisbursementStatus handles
// PATCH /startups/:id/grants/:grantId/disbursements/:disbursementId
func (h *GrantHandler) UpdateDisbursementStatus(c *gin.Context) {
	var body struct {
		Status      string `json:"status"`
		Actor       string `json:"actor"`
		Note        string `json:"note"`
		ReleaseDate any    `json:"releaseDate"`
		Reference   string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.grantService.UpdateDisbursementStatus(
		c.Request.Context(),
		c.Param("id"),
		c.Param("grantId"),
		c.Param("disbursementId"),
		grant.DisbursementStatusUpdate{
			Status:      body.Status,
			Actor:       body.Actor,
			Note:        body.Note,
			ReleaseDate: model.CoerceTime(body.ReleaseDate),
			Reference:   body.Reference,
		},
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
