package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/store"
	"patent-ip-platform/models"
	"patent-ip-platform/services"
	"patent-ip-platform/utils"
)

// CreateFilingRequest is the submission payload for a new filing.
type CreateFilingRequest struct {
	Title          string                 `json:"title" binding:"required"`
	Documents      models.FilingDocuments `json:"documents" binding:"required"`
	Classification models.Classification  `json:"classification"`
}

func SetupFilingRoutes(router *gin.Engine, filings *store.FilingStore, producer *services.JobProducer) {
	group := router.Group("/filings")

	group.POST("", func(c *gin.Context) {
		var req CreateFilingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		filing, err := filings.Create(c.Request.Context(), &models.Filing{
			Title:          req.Title,
			Documents:      req.Documents,
			Classification: req.Classification,
		})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create filing", nil)
			return
		}

		c.JSON(http.StatusCreated, filing)
	})

	group.GET("/:id", func(c *gin.Context) {
		id, ok := filingIDParam(c)
		if !ok {
			return
		}

		filing, err := filings.GetByID(c.Request.Context(), id)
		if err == store.ErrNotFound {
			utils.RespondWithNotFound(c, "Filing not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load filing", nil)
			return
		}

		c.JSON(http.StatusOK, filing)
	})

	group.POST("/:id/ingest", func(c *gin.Context) {
		id, ok := filingIDParam(c)
		if !ok {
			return
		}

		revision := c.Query("revision") == "true"
		job, err := producer.CreateIngestJob(c.Request.Context(), id, revision)
		if err == store.ErrNotFound {
			utils.RespondWithNotFound(c, "Filing not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue ingest job", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, job)
	})

	router.GET("/pipeline/stats", func(c *gin.Context) {
		counts, err := filings.CountByIngestionStatus(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load pipeline stats", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ingestion_status_counts": counts})
	})
}

// filingIDParam parses the :id path parameter, responding 400 on failure.
func filingIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithBadRequest(c, "Invalid filing ID format", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}
