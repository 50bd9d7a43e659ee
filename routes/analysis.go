package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/store"
	"patent-ip-platform/services"
	"patent-ip-platform/utils"
)

func SetupAnalysisRoutes(router *gin.Engine, filings *store.FilingStore, snapshots *store.SnapshotStore, jobs *store.JobStore, producer *services.JobProducer) {
	group := router.Group("/filings")

	group.POST("/:id/similarity", func(c *gin.Context) {
		id, ok := filingIDParam(c)
		if !ok {
			return
		}

		job, err := producer.CreateSimilarityJob(c.Request.Context(), id)
		if err == store.ErrNotFound {
			utils.RespondWithNotFound(c, "Filing not found")
			return
		}
		if err != nil {
			utils.RespondWithBadRequest(c, "Failed to queue similarity job", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, job)
	})

	group.GET("/:id/snapshots", func(c *gin.Context) {
		id, ok := filingIDParam(c)
		if !ok {
			return
		}

		results, err := snapshots.ListByTarget(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load snapshots", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"snapshots": results, "count": len(results)})
	})

	router.GET("/snapshots/:id", func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid snapshot ID format", nil)
			return
		}

		snap, err := snapshots.GetByID(c.Request.Context(), id)
		if err == store.ErrNotFound {
			utils.RespondWithNotFound(c, "Snapshot not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load snapshot", nil)
			return
		}

		c.JSON(http.StatusOK, snap)
	})

	router.GET("/jobs/:id", func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid job ID format", nil)
			return
		}

		job, err := jobs.GetByID(c.Request.Context(), id)
		if err == store.ErrNotFound {
			utils.RespondWithNotFound(c, "Job not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load job", nil)
			return
		}

		c.JSON(http.StatusOK, job)
	})
}
