package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"incubatorhub/internal/model"
	"incubatorhub/internal/service/grant"
)

type ReportHandler struct {
	grantService *grant.Service
}

func NewReportHandler(grantService *grant.Service) *ReportHandler {
	return &ReportHandler{
		grantService: grantService,
	}
}

type reportRequest struct {
	Period struct {
		Start any `json:"start"`
		End   any `json:"end"`
	} `json:"period"`
	CertificateNumber string `json:"certificateNumber"`
}

// period coerces the request window; absent or unparsable bounds surface as
// an invalid period, the same failure an inverted window produces.
func (r reportRequest) period() (grant.Period, error) {
	start := model.CoerceTime(r.Period.Start)
	end := model.CoerceTime(r.Period.End)
	if start == nil || end == nil {
		return grant.Period{}, grant.ErrInvalidPeriod
	}
	return grant.Period{Start: *start, End: *end}, nil
}

// GenerateUtilizationCertificate handles
// POST /startups/:id/grants/:grantId/reports/utilization-certificate
func (h *ReportHandler) GenerateUtilizationCertificate(c *gin.Context) {
	var body reportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	period, err := body.period()
	if err != nil {
		writeError(c, err)
		return
	}

	cert, err := h.grantService.UtilizationCertificate(
		c.Request.Context(), c.Param("id"), c.Param("grantId"), period, body.CertificateNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

// GenerateComplianceReport handles
// POST /startups/:id/grants/:grantId/reports/compliance
func (h *ReportHandler) GenerateComplianceReport(c *gin.Context) {
	var body reportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	period, err := body.period()
	if err != nil {
		writeError(c, err)
		return
	}

	report, err := h.grantService.ComplianceReport(
		c.Request.Context(), c.Param("id"), c.Param("grantId"), period)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GenerateReportBundle handles
// POST /startups/:id/grants/:grantId/reports/bundle
func (h *ReportHandler) GenerateReportBundle(c *gin.Context) {
	var body reportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	period, err := body.period()
	if err != nil {
		writeError(c, err)
		return
	}

	bundle, err := h.grantService.ReportBundle(
		c.Request.Context(), c.Param("id"), c.Param("grantId"), period, body.CertificateNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}
