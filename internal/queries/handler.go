package queries

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

// Handler exposes the query endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches query routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/query", h.query)
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	DocumentID string    `json:"documentId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Confidence string    `json:"confidence"`
	Truncated  bool      `json:"truncated"`
	Timestamp  time.Time `json:"timestamp"`
}

func (h *Handler) query(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	res, err := h.Svc.Ask(c.Request.Context(), userID, documentID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found")
		case errors.Is(err, documents.ErrNoText):
			respond.Error(c, http.StatusBadRequest, "text_not_extracted", "extract the document text before querying")
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrUpstream):
			respond.Error(c, http.StatusInternalServerError, "upstream_error", "query failed")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer query")
		}
		return
	}

	respond.JSON(c, http.StatusOK, queryResponse{
		DocumentID: res.DocumentID,
		Question:   res.Question,
		Answer:     res.Answer,
		Confidence: res.Confidence,
		Truncated:  res.Truncated,
		Timestamp:  res.Timestamp,
	})
}
