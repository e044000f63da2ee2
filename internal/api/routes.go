package api

import "github.com/gin-gonic/gin"

// SetupCrawlerRoutes wires POST /crawl and GET /job-status/{job_id} onto
// router.
func SetupCrawlerRoutes(router *gin.Engine, h *CrawlerHandler) {
	router.POST("/crawl", h.Crawl)
	router.GET("/job-status/:job_id", h.JobStatus)
}

// SetupQueryRoutes wires GET /search onto router.
func SetupQueryRoutes(router *gin.Engine, h *QueryHandler) {
	router.GET("/search", h.Search)
}
