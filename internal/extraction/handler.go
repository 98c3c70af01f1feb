package extraction

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

// Handler exposes the extract endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/extract", h.extract)
}

type extractRequest struct {
	Force bool `json:"force"`
}

type extractResponse struct {
	DocumentID string  `json:"documentId"`
	Status     string  `json:"status"`
	WordCount  int     `json:"wordCount"`
	Confidence float64 `json:"ocrConfidence"`
	Truncated  bool    `json:"textTruncated"`
	Cached     bool    `json:"cached"`
}

func (h *Handler) extract(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	var req extractRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body")
			return
		}
	}

	res, err := h.Svc.Extract(c.Request.Context(), userID, documentID, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found")
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, ErrInProgress), errors.Is(err, documents.ErrStaleStatus):
			respond.Error(c, http.StatusConflict, "conflict", "document status changed; re-read and retry")
		case errors.Is(err, ErrUpstream):
			respond.Error(c, http.StatusInternalServerError, "upstream_error", "text extraction failed")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to extract text")
		}
		return
	}

	respond.JSON(c, http.StatusOK, extractResponse{
		DocumentID: res.DocumentID,
		Status:     string(res.Status),
		WordCount:  res.WordCount,
		Confidence: res.Confidence,
		Truncated:  res.Truncated,
		Cached:     res.Cached,
	})
}
