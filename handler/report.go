package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	C "clickpulse/config"
	"clickpulse/task/pipeline"
)

// Read-only surface over the latest run's artifacts for the reporting and
// BI collaborators.

func InitRoutes(r *gin.Engine) {
	r.GET("/health", HealthHandler)
	r.GET("/monitor/report", artifactHandler(pipeline.ArtifactMonitorReport))
	r.GET("/run/summary", artifactHandler(pipeline.ArtifactRunSummary))
	r.GET("/sessions", artifactHandler(pipeline.ArtifactSessions))
	r.GET("/purchases", artifactHandler(pipeline.ArtifactAttribution))
	r.GET("/rollups/channels/last", artifactHandler(pipeline.ArtifactChannelsLast))
	r.GET("/rollups/channels/first", artifactHandler(pipeline.ArtifactChannelsFirst))
	r.GET("/rollups/conversion", artifactHandler(pipeline.ArtifactConversion))
	r.GET("/rollups/devices", artifactHandler(pipeline.ArtifactDevices))
	r.GET("/rollups/browsers", artifactHandler(pipeline.ArtifactBrowsers))
	r.GET("/rollups/assisted", artifactHandler(pipeline.ArtifactAssistedDirect))
	r.GET("/rollups/products", artifactHandler(pipeline.ArtifactTopProducts))
	r.GET("/rollups/daily", artifactHandler(pipeline.ArtifactDailyRevenue))
}

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// artifactHandler serves one artifact file of the latest run. Artifacts are
// rewritten atomically per run, so a plain read is enough.
func artifactHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logCtx := log.WithField("artifact", name)

		conf := C.GetConfig()
		if conf == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Service not configured."})
			return
		}

		path := filepath.Join(conf.ArtifactsDir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				gin.H{"error": "No run artifacts available yet."})
			return
		}
		if err != nil {
			logCtx.WithError(err).Error("Failed to read artifact.")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to read artifact."})
			return
		}

		var value json.RawMessage
		if err := json.Unmarshal(data, &value); err != nil {
			logCtx.WithError(err).Error("Artifact is not valid JSON.")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Artifact is not valid JSON."})
			return
		}
		c.JSON(http.StatusOK, value)
	}
}
