package uploads

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"documind-backend/internal/documents"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
	"documind-backend/internal/shared/storage/object"
	"documind-backend/internal/shared/telemetry"
	"documind-backend/internal/shared/util"
)

const keyPrefix = "documents"

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"text/plain":      {},
}

// Handler issues upload credentials and confirms completed uploads.
type Handler struct {
	Docs           *documents.Service
	Store          object.ObjectStore
	MaxUploadBytes int64
	PresignExpiry  time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(docs *documents.Service, store object.ObjectStore, maxUploadBytes int64, presignExpiry time.Duration) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	if presignExpiry <= 0 {
		presignExpiry = time.Hour
	}
	return &Handler{
		Docs:           docs,
		Store:          store,
		MaxUploadBytes: maxUploadBytes,
		PresignExpiry:  presignExpiry,
	}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/upload", h.presign)
	rg.POST("/upload", h.confirm)
	rg.PUT("/upload/content", h.directPut)
}

type presignResponse struct {
	UploadURL  string `json:"uploadUrl"`
	DocumentID string `json:"documentId"`
	StorageKey string `json:"storageKey"`
	ExpiresIn  int64  `json:"expiresIn"`
}

func (h *Handler) presign(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filename := strings.TrimSpace(c.Query("filename"))
	contentType := strings.TrimSpace(c.Query("contentType"))
	if contentType == "" {
		contentType = "application/pdf"
	}

	if filename == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "filename is required")
		return
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed")
		return
	}

	sanitized, err := util.SanitizeFileName(filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid filename")
		return
	}

	documentID := uuid.NewString()
	datePart := time.Now().UTC().Format("2006/01/02")
	storageKey := path.Join(keyPrefix, util.HashUserKey(userID), datePart, documentID, sanitized)

	uploadURL := ""
	if presigner, ok := h.Store.(object.Presigner); ok {
		uploadURL, err = presigner.PresignPut(c.Request.Context(), storageKey, contentType, h.PresignExpiry)
		if err != nil {
			telemetry.Error("uploads.presign.failed", map[string]any{
				"err":          err.Error(),
				"storage_key":  storageKey,
				"content_type": contentType,
				"request_id":   c.GetString("requestId"),
			})
			respond.Error(c, http.StatusInternalServerError, "upstream_error", "failed to generate upload url")
			return
		}
	} else {
		// Local stores cannot presign; the client PUTs through the API.
		uploadURL = "/api/v1/upload/content?key=" + storageKey
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:  uploadURL,
		DocumentID: documentID,
		StorageKey: storageKey,
		ExpiresIn:  int64(h.PresignExpiry.Seconds()),
	})
}

type confirmRequest struct {
	DocumentID  string `json:"documentId"`
	StorageKey  string `json:"storageKey"`
	FileName    string `json:"filename"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

func (h *Handler) confirm(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	req.DocumentID = strings.TrimSpace(req.DocumentID)
	req.StorageKey = strings.TrimSpace(req.StorageKey)
	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		req.ContentType = "application/pdf"
	}

	if req.DocumentID == "" || req.StorageKey == "" || req.FileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId, storageKey, and filename are required")
		return
	}
	if req.FileSize <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileSize must be positive")
		return
	}
	if req.FileSize > h.MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error",
			"fileSize exceeds the maximum of "+strconv.FormatInt(h.MaxUploadBytes, 10)+" bytes")
		return
	}

	doc, err := h.Docs.Confirm(c.Request.Context(), userID, documents.ConfirmInput{
		DocumentID:  req.DocumentID,
		StorageKey:  req.StorageKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.FileSize,
	})
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found in storage")
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to confirm upload")
		}
		return
	}

	c.Set("documentId", doc.ID)
	c.Set("statusTransition", "->"+string(doc.Status))

	respond.JSON(c, http.StatusCreated, gin.H{
		"message": "Document uploaded successfully",
		"document": gin.H{
			"documentId":  doc.ID,
			"filename":    doc.FileName,
			"storageKey":  doc.StorageKey,
			"contentType": doc.ContentType,
			"fileSize":    doc.SizeBytes,
			"status":      doc.Status,
			"createdAt":   doc.CreatedAt,
		},
	})
}

// directPut accepts raw bytes when the store cannot presign (local dev).
func (h *Handler) directPut(c *gin.Context) {
	if _, ok := h.Store.(object.Presigner); ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "direct upload disabled; use the presigned url")
		return
	}

	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "key is required")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	contentType := c.GetHeader("Content-Type")

	written, err := h.Store.SaveWithKey(c.Request.Context(), key, contentType, c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store upload")
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"storageKey": key,
		"sizeBytes":  written,
	})
}
