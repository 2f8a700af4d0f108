package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	grantHandler *GrantHandler,
	reportHandler *ReportHandler,
	portfolioHandler *PortfolioHandler,
) *Router {
	r := gin.Default()
	r.Use(TraceMiddleware(), MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	startups := r.Group("/startups/:id/grants")
	{
		startups.GET("", grantHandler.GetCatalog)
		startups.GET("/disbursements", grantHandler.ListDisbursements)
		startups.GET("/snapshot", grantHandler.GetSnapshot)
		startups.POST("/:grantId/disbursements", grantHandler.RequestDisbursement)
		startups.PATCH("/:grantId/disbursements/:disbursementId", grantHandler.UpdateDisbursementStatus)
		startups.POST("/:grantId/reports/utilization-certificate", reportHandler.GenerateUtilizationCertificate)
		startups.POST("/:grantId/reports/compliance", reportHandler.GenerateComplianceReport)
		startups.POST("/:grantId/reports/bundle", reportHandler.GenerateReportBundle)
	}

	r.GET("/portfolio/overview", portfolioHandler.GetOverview)

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
