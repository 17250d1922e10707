package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/balramkumarpandey/apna-room/internal/api/handlers"
	"github.com/balramkumarpandey/apna-room/internal/api/middleware"
	"github.com/balramkumarpandey/apna-room/internal/config"
	"github.com/balramkumarpandey/apna-room/internal/services"
	"github.com/balramkumarpandey/apna-room/internal/storage"
	"github.com/balramkumarpandey/apna-room/internal/tasks"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, dispatcher tasks.IDispatcher) *gin.Engine {
	roomService := services.NewRoomService(db, cfg)
	inquiryService := services.NewInquiryService(db, cfg)
	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	roomHandler := handlers.NewRoomHandler(roomService)
	inquiryHandler := handlers.NewInquiryHandler(inquiryService, dispatcher)
	uploadHandler := handlers.NewUploadHandler(s3StorageService, roomService, dispatcher)
	webhookHandler := handlers.NewWebhookHandler(cfg, inquiryService, roomService, dispatcher)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/rooms", roomHandler.ListRooms)
		apiGroup.GET("/rooms/:id", roomHandler.GetRoomByID)
		apiGroup.POST("/rooms", roomHandler.CreateRoom)
		apiGroup.PUT("/rooms/:id", roomHandler.UpdateRoom)
		apiGroup.DELETE("/rooms/:id", roomHandler.DeleteRoom)
		apiGroup.GET("/colonies", roomHandler.ListColonies)

		apiGroup.POST("/rooms/:id/images", uploadHandler.AttachImage)
		apiGroup.POST("/uploads/presign", uploadHandler.Presign)

		// The inquiry endpoints fan out into notifications; they carry the
		// tighter intake bucket on top of the global one.
		apiGroup.POST("/inquire/tenant", rateLimiter.LimitIntake(), inquiryHandler.CreateTenantInquiry)
		apiGroup.POST("/inquire/landlord", rateLimiter.LimitIntake(), inquiryHandler.CreateLandlordInquiry)

		apiGroup.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
	}

	// Meta webhook endpoints live outside /api; the provider is configured
	// with this exact path.
	r.GET("/webhook", webhookHandler.Verify)
	r.POST("/webhook", webhookHandler.Receive)

	return r
}

// SetupServiceRouter configures and returns the service Gin engine.
// Requires Redis client for the getTestEmail endpoint.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // Expect ["action_type", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [actionType, email]"})
				return
			}
			actionType := args[0]
			emailAddr := args[1]
			redisKey := fmt.Sprintf("mockemail:%s:%s", emailAddr, actionType)

			// Poll Redis briefly for the key
			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
