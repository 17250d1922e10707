package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/balramkumarpandey/apna-room/internal/config"
	"github.com/balramkumarpandey/apna-room/internal/email"
	"github.com/balramkumarpandey/apna-room/internal/services"
	"github.com/balramkumarpandey/apna-room/internal/whatsapp"
)

// bookingMarker flags tenant inquiries created from a payment-confirmed
// booking; their notification email gets a louder subject line.
const bookingMarker = "BOOKING:"

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	inquiryService services.IInquiryService
	roomService    services.IRoomService
	waClient       whatsapp.IClient
	s3Client       *s3.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	inquiryService services.IInquiryService,
	roomService services.IRoomService,
	waClient whatsapp.IClient,
	s3Client *s3.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		inquiryService: inquiryService,
		roomService:    roomService,
		waClient:       waClient,
		s3Client:       s3Client,
	}
}

// SetupServer configures an Asynq server and registers handlers for the
// requested worker modes. The caller is responsible for running it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	// Each worker only consumes the queues it has handlers for, so the
	// combined mode can run both servers against the same Redis.
	queues := make(map[string]int)
	if isBgWorker {
		queues["default"] = 5
	}
	if isImageWorker {
		queues["images"] = 3
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(TypeTenantInquiryEmail, processor.HandleTenantInquiryEmailTask)
		mux.HandleFunc(TypeLandlordInquiryEmail, processor.HandleLandlordInquiryEmailTask)
		mux.HandleFunc(TypeWhatsAppText, processor.HandleWhatsAppTextTask)
		log.Println("Registered notification task handlers.")
	}

	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		log.Println("Registered image processing task handlers.")
	}

	return srv, mux
}

// --- Task Handlers ---

// HandleTenantInquiryEmailTask builds and sends the internal notification for
// a tenant inquiry. Delivery is at most once: any failure is logged and the
// task is never retried.
func (p *TaskProcessor) HandleTenantInquiryEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal tenant inquiry email payload: %v: %w", err, asynq.SkipRetry)
	}

	inquiryID, err := primitive.ObjectIDFromHex(payload.InquiryID)
	if err != nil {
		log.Printf("Invalid InquiryID in email task payload: %s", payload.InquiryID)
		return fmt.Errorf("invalid inquiry ID in payload: %w", asynq.SkipRetry)
	}

	inquiry, err := p.inquiryService.FindTenantInquiryByID(ctx, inquiryID)
	if err != nil {
		log.Printf("Error fetching tenant inquiry %s for email task: %v", payload.InquiryID, err)
		return fmt.Errorf("tenant inquiry not found: %w", asynq.SkipRetry)
	}

	room, err := p.roomService.FindRoomByID(ctx, inquiry.RoomID)
	if err != nil {
		log.Printf("Error fetching room %s for inquiry %s: %v", inquiry.RoomID.Hex(), payload.InquiryID, err)
		return fmt.Errorf("inquiry room not found: %w", asynq.SkipRetry)
	}

	subject := fmt.Sprintf("New Inquiry: %s", inquiry.Name)
	if strings.Contains(inquiry.Name, bookingMarker) {
		subject = fmt.Sprintf("₹99 PAYMENT RECEIVED: %s", inquiry.Name)
	}

	body := fmt.Sprintf(
		"New Inquiry Received!\n\nName: %s\nPhone: %s\nRoom: %s (ID: %s)\nLandlord: %s (%s)\n",
		inquiry.Name, inquiry.PhoneNumber,
		room.Title, room.ID.Hex(),
		room.LandlordName, room.LandlordPhone,
	)

	var attachment *email.Attachment
	if inquiry.PaymentScreenshot != "" && p.s3Client != nil {
		attachment, err = p.fetchAttachment(ctx, inquiry.PaymentScreenshot)
		if err != nil {
			log.Printf("Error fetching payment screenshot %s for inquiry %s: %v", inquiry.PaymentScreenshot, payload.InquiryID, err)
			return fmt.Errorf("failed to fetch payment screenshot: %w", asynq.SkipRetry)
		}
	}

	rawMessage := email.BuildMessage(p.cfg.SmtpFromAddress, p.cfg.NotifyEmail, subject, body, attachment)
	if err := p.emailSender.Send(ctx, []string{p.cfg.NotifyEmail}, subject, rawMessage); err != nil {
		log.Printf("Tenant inquiry email delivery failed for %s: %v", payload.InquiryID, err)
		return fmt.Errorf("email delivery failed: %w", asynq.SkipRetry)
	}

	log.Printf("Tenant inquiry email sent: inquiry=%s", payload.InquiryID)
	return nil
}

// HandleLandlordInquiryEmailTask notifies the team that a landlord wants to
// list a property.
func (p *TaskProcessor) HandleLandlordInquiryEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal landlord inquiry email payload: %v: %w", err, asynq.SkipRetry)
	}

	inquiryID, err := primitive.ObjectIDFromHex(payload.InquiryID)
	if err != nil {
		log.Printf("Invalid InquiryID in email task payload: %s", payload.InquiryID)
		return fmt.Errorf("invalid inquiry ID in payload: %w", asynq.SkipRetry)
	}

	inquiry, err := p.inquiryService.FindLandlordInquiryByID(ctx, inquiryID)
	if err != nil {
		log.Printf("Error fetching landlord inquiry %s for email task: %v", payload.InquiryID, err)
		return fmt.Errorf("landlord inquiry not found: %w", asynq.SkipRetry)
	}

	subject := "New Property Listing Request"
	body := fmt.Sprintf(
		"Someone wants to list their property!\n\nName: %s\nPhone: %s\nLocation: %s\n",
		inquiry.Name, inquiry.PhoneNumber, inquiry.Address,
	)

	rawMessage := email.BuildMessage(p.cfg.SmtpFromAddress, p.cfg.NotifyEmail, subject, body, nil)
	if err := p.emailSender.Send(ctx, []string{p.cfg.NotifyEmail}, subject, rawMessage); err != nil {
		log.Printf("Landlord inquiry email delivery failed for %s: %v", payload.InquiryID, err)
		return fmt.Errorf("email delivery failed: %w", asynq.SkipRetry)
	}

	log.Printf("Landlord inquiry email sent: inquiry=%s", payload.InquiryID)
	return nil
}

// HandleWhatsAppTextTask sends one outbound chat message.
func (p *TaskProcessor) HandleWhatsAppTextTask(ctx context.Context, t *asynq.Task) error {
	var payload WhatsAppTextPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal whatsapp text payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.waClient.SendText(ctx, payload.To, payload.Body); err != nil {
		log.Printf("WhatsApp delivery failed: to=%s err=%v", payload.To, err)
		return fmt.Errorf("whatsapp delivery failed: %w", asynq.SkipRetry)
	}

	log.Printf("WhatsApp message sent: to=%s", payload.To)
	return nil
}

// fetchAttachment downloads an S3 object once and packages it for inlining.
func (p *TaskProcessor) fetchAttachment(ctx context.Context, key string) (*email.Attachment, error) {
	out, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s from S3: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body for %s: %w", key, err)
	}

	parts := strings.Split(key, "/")
	filename := parts[len(parts)-1]

	return &email.Attachment{
		Filename:    filename,
		ContentType: email.ContentTypeForFilename(filename),
		Data:        data,
	}, nil
}

// HandleImageProcessTask normalizes an uploaded room image: enforces the size
// cap, resizes oversized images, re-uploads and attaches the key to the room.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	roomID, err := primitive.ObjectIDFromHex(payload.RoomID)
	if err != nil {
		log.Printf("Invalid RoomID in image task payload: %s", payload.RoomID)
		return fmt.Errorf("invalid room ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, RoomID=%s", payload.S3Key, payload.RoomID)

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		log.Printf("Error getting object %s from S3: %v", payload.S3Key, err)
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		log.Printf("Error reading image object body for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("failed to read image data: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxWidth := uint(p.cfg.ImageMaxDimension)
	maxHeight := uint(p.cfg.ImageMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxWidth || uint(img.Bounds().Dy()) > maxHeight

	processedImageData := imgData
	contentType := "image/jpeg"
	if getObjectOutput.ContentType != nil {
		contentType = *getObjectOutput.ContentType
	}

	if needsResize {
		resizedImg := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			log.Printf("Error encoding resized image %s: %v", payload.S3Key, err)
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		processedImageData = buf.Bytes()
		contentType = "image/jpeg"
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())

		if int64(len(processedImageData)) > maxSizeBytes {
			log.Printf("Resized image %s still exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(processedImageData), maxSizeBytes)
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
	}

	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(processedImageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Error uploading processed image %s to S3: %v", payload.S3Key, err)
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	if err := p.roomService.AddImageToRoom(ctx, roomID, payload.S3Key); err != nil {
		log.Printf("Error adding image key %s to room %s: %v", payload.S3Key, payload.RoomID, err)
		return fmt.Errorf("failed to update room with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, RoomID=%s", payload.S3Key, payload.RoomID)
	return nil
}
