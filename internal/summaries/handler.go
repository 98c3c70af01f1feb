package summaries

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

// Handler exposes the summarize endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches summary routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/summarize", h.summarize)
}

type summarizeResponse struct {
	DocumentID string        `json:"documentId"`
	Summary    string        `json:"summary"`
	Status     string        `json:"status"`
	Cached     bool          `json:"cached"`
	Truncated  bool          `json:"truncated"`
	Entities   *llm.Entities `json:"entities,omitempty"`
	Questions  []string      `json:"suggestedQuestions,omitempty"`
}

func (h *Handler) summarize(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	opts := Options{
		Entities:  boolQuery(c, "entities"),
		Questions: boolQuery(c, "questions"),
		Force:     boolQuery(c, "force"),
	}
	if v := c.Query("maxLength"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "maxLength must be a positive integer")
			return
		}
		opts.MaxLength = parsed
	}

	res, err := h.Svc.Summarize(c.Request.Context(), userID, documentID, opts)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found")
		case errors.Is(err, documents.ErrNoText):
			respond.Error(c, http.StatusBadRequest, "text_not_extracted", "extract the document text before summarizing")
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, documents.ErrStaleStatus):
			respond.Error(c, http.StatusConflict, "conflict", "document status changed; re-read and retry")
		case errors.Is(err, ErrUpstream):
			respond.Error(c, http.StatusInternalServerError, "upstream_error", "summarization failed")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to summarize document")
		}
		return
	}

	respond.JSON(c, http.StatusOK, summarizeResponse{
		DocumentID: res.DocumentID,
		Summary:    res.Summary,
		Status:     string(res.Status),
		Cached:     res.Cached,
		Truncated:  res.Truncated,
		Entities:   res.Entities,
		Questions:  res.Questions,
	})
}

func boolQuery(c *gin.Context, name string) bool {
	return strings.EqualFold(c.Query(name), "true")
}
