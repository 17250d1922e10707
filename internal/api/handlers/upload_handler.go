package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/balramkumarpandey/apna-room/internal/services"
	"github.com/balramkumarpandey/apna-room/internal/storage"
	"github.com/balramkumarpandey/apna-room/internal/tasks"
)

// UploadHandler issues presigned S3 upload URLs and triggers image
// post-processing once the client reports the upload done.
type UploadHandler struct {
	storageService storage.IS3Storage
	roomService    services.IRoomService
	dispatcher     tasks.IDispatcher
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(storageService storage.IS3Storage, roomService services.IRoomService, dispatcher tasks.IDispatcher) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
		roomService:    roomService,
		dispatcher:     dispatcher,
	}
}

type presignRequest struct {
	Kind        string `json:"kind"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Presign handles POST /api/uploads/presign.
func (h *UploadHandler) Presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !storage.ValidKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": gin.H{"kind": "unknown upload kind"}})
		return
	}
	if req.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": gin.H{"filename": "filename is required"}})
		return
	}

	uploadURL, key, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), req.Kind, req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload_url": uploadURL, "key": key})
}

type attachImageRequest struct {
	Key string `json:"key"`
}

// AttachImage handles POST /api/rooms/:id/images. The image is normalized in
// the background before the key appears on the room.
func (h *UploadHandler) AttachImage(c *gin.Context) {
	roomID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}

	var req attachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Confirm the room exists before queueing work against it.
	if _, err := h.roomService.FindRoomByID(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve room"})
		}
		return
	}

	if err := h.dispatcher.DispatchImageProcess(c.Request.Context(), roomID, req.Key); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue image processing"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "processing", "key": req.Key})
}
